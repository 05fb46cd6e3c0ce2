// Package observability provides comprehensive observability infrastructure including
// distributed tracing, metrics collection, structured logging, and health checks.
//
// # Overview
//
// The observability package implements OpenTelemetry-based observability with:
//   - Distributed tracing (OpenTelemetry/Jaeger)
//   - Metrics collection (Prometheus)
//   - Structured logging (log/slog)
//   - Health check endpoints
//   - Automatic instrumentation for broker and runtime operations
//   - Graceful shutdown with trace flushing
//
// This package is the foundation for observability across the runner and its
// agents, providing consistent tracing, metrics, and logging for the broker,
// the runtime dispatch loop, and every concrete agent.
//
// # Quick Start
//
// Initialize observability for your process:
//
//	config := observability.DefaultConfig("agenthub-runner")
//	obs, err := observability.NewObservability(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer obs.Shutdown(context.Background())
//
//	// Use the components
//	logger := obs.Logger
//	tracer := obs.Tracer
//	meter := obs.Meter
//
// This automatically sets up:
//   - OTLP trace exporter to Jaeger
//   - Prometheus metrics exporter
//   - Structured logger with trace context
//   - Proper resource attributes (service name, version, environment)
//
// # Architecture
//
// The package provides layered observability:
//
//	┌─────────────────────────────────────────────┐
//	│         Application Code                    │
//	│   (Agents, Broker, Runner)                  │
//	├─────────────────────────────────────────────┤
//	│         TraceManager                        │
//	│   - Span creation & management              │
//	│   - Task/event span attributes              │
//	│   - Context propagation                     │
//	├─────────────────────────────────────────────┤
//	│         MetricsManager                      │
//	│   - Counter metrics (events, errors)        │
//	│   - Histogram metrics (durations)           │
//	│   - Gauge metrics (goroutines, memory)      │
//	├─────────────────────────────────────────────┤
//	│         Logger (slog)                       │
//	│   - Structured logging                      │
//	│   - Trace context injection                 │
//	│   - Configurable log levels                 │
//	├─────────────────────────────────────────────┤
//	│         OpenTelemetry SDK                   │
//	│   - OTLP trace exporter → Jaeger            │
//	│   - Prometheus metrics exporter             │
//	│   - Resource detection                      │
//	└─────────────────────────────────────────────┘
//
// # Configuration
//
// **Config** specifies observability settings:
//
//	config := observability.Config{
//	    ServiceName:    "agenthub-runner",
//	    ServiceVersion: "1.0.0",
//	    JaegerEndpoint: "localhost:4317",    // OTLP gRPC endpoint
//	    PrometheusPort: "9090",
//	    Environment:    "production",
//	    LogLevel:       "INFO",              // DEBUG, INFO, WARN, ERROR
//	}
//
// **DefaultConfig** reads from environment via internal/config:
//
//	config := observability.DefaultConfig("agenthub-runner")
//
// Environment variables (see internal/config):
//   - JAEGER_ENDPOINT: Jaeger OTLP endpoint
//   - PROMETHEUS_PORT: Port for Prometheus metrics
//   - ENVIRONMENT: Deployment environment (dev, staging, prod)
//   - LOG_LEVEL: Logging level (DEBUG, INFO, WARN, ERROR)
//
// # Distributed Tracing
//
// Use TraceManager for creating and managing spans:
//
//	traceManager := observability.NewTraceManager("agenthub-runner")
//
//	// Start a span
//	ctx, span := traceManager.StartSpan(ctx, "process_request")
//	defer span.End()
//
//	// Add attributes
//	span.SetAttributes(
//	    attribute.String("brand_id", "brand123"),
//	    attribute.Int("items_count", 5),
//	)
//
//	// Record errors
//	if err != nil {
//	    traceManager.RecordError(span, err)
//	} else {
//	    traceManager.SetSpanSuccess(span)
//	}
//
// ## Runtime-Specific Tracing
//
// TraceManager provides specialized methods for the broker/runtime's task and
// event dispatch path (see internal/runtime/dispatch.go):
//
// **Task Handling**:
//
//	ctx, span := traceManager.StartSpan(ctx, "agent.content_creation_testing.handle_task")
//	defer span.End()
//
// **Event Processing**:
//
//	ctx, span := traceManager.StartEventProcessingSpan(ctx, eventID, eventType, senderAgentID, agentID)
//	defer span.End()
//
// **Task Attributes**:
//
//	traceManager.AddTaskAttributes(span, taskID, taskType, payload)
//
// ## Context Propagation
//
// Propagate trace context across the broker's envelope.Message.TraceContext:
//
//	// Inject for a published envelope
//	traceManager.InjectTraceContext(ctx, msg.TraceContext)
//
//	// Extract on the receiving agent
//	ctx = traceManager.ExtractTraceContext(ctx, msg.TraceContext)
//
// # Metrics Collection
//
// Use MetricsManager for recording metrics:
//
//	metricsManager, err := observability.NewMetricsManager(meter)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// ## Event Metrics
//
// **Processed Events**:
//
//	metricsManager.IncrementEventsProcessed(ctx, "content_performance_update", "strategy_development", true)
//
// **Event Errors**:
//
//	metricsManager.IncrementEventErrors(ctx, "content_performance_update", "strategy_development", "handler_error")
//
// **Published Events**:
//
//	metricsManager.IncrementEventsPublished(ctx, "content_test_completed", "content_creation_testing")
//
// **Processing Duration**:
//
//	timer := metricsManager.StartTimer()
//	// ... do work ...
//	timer(ctx, "content_test_completed", "content_creation_testing")
//
// ## System Metrics
//
// **Runtime Metrics**:
//
//	metricsManager.UpdateSystemMetrics(ctx)
//
// This records:
//   - go_goroutines: Current goroutine count
//   - go_memstats_alloc_bytes: Allocated memory
//   - process_resident_memory_bytes: Resident memory size
//
// ## Available Metrics
//
// The package provides these standard metrics:
//
// **Event Metrics**:
//   - events_processed_total: Counter with labels (event_type, source, success)
//   - event_processing_duration_seconds: Histogram with labels (event_type, source)
//   - event_errors_total: Counter with labels (event_type, source, error)
//   - events_published_total: Counter with labels (event_type, destination)
//
// **System Metrics**:
//   - process_cpu_seconds_total: CPU time counter
//   - process_resident_memory_bytes: Memory gauge
//   - go_goroutines: Goroutine count gauge
//   - go_memstats_alloc_bytes: Allocated memory gauge
//
// **Broker Metrics**:
//   - message_broker_publish_duration_seconds: Publish duration histogram
//   - message_broker_consume_duration_seconds: Consume duration histogram
//   - message_broker_connection_errors_total: Connection error counter
//
// All metrics are exposed on the health server's /metrics endpoint (see
// HealthServer below), backed by the Prometheus default registerer.
//
// # Structured Logging
//
// The package provides slog-based structured logging with trace context:
//
//	logger := obs.Logger
//
//	// Context-aware logging (includes trace ID if present)
//	logger.InfoContext(ctx, "processing task",
//	    "task_id", taskID,
//	    "agent_id", agentID,
//	)
//
//	logger.ErrorContext(ctx, "task failed",
//	    "task_id", taskID,
//	    "error", err,
//	)
//
// ## Log Levels
//
// Configure via LogLevel in config:
//   - DEBUG: Verbose logging + stdout output
//   - INFO: Standard operation logging
//   - WARN: Warning conditions
//   - ERROR: Error conditions
//
// DEBUG mode enables dual output (observability handler + stdout).
//
// # Health Checks
//
// The package includes health check infrastructure (see healthcheck.go):
//
//	healthServer := observability.NewHealthServer(port, serviceName, version)
//
//	// Add health checkers
//	healthServer.AddChecker("self", observability.NewBasicHealthChecker("self", func(ctx context.Context) error {
//	    return nil  // Always healthy
//	}))
//
//	healthServer.AddChecker("database", observability.NewBasicHealthChecker("database", func(ctx context.Context) error {
//	    return pool.Ping(ctx)
//	}))
//
//	// Start server (exposes /health, /ready, and /metrics endpoints)
//	healthServer.Start(ctx)
//
// Health endpoints:
//   - GET /health: Overall health status
//   - GET /ready: Readiness (same checks as /health)
//   - GET /metrics: Prometheus metrics
//
// # Complete Example
//
// Here's a full example setting up observability for the runner, mirroring
// cmd/agenthub-runner/main.go:
//
//	func main() {
//	    // 1. Initialize observability
//	    config := observability.DefaultConfig("agenthub-runner")
//	    obs, err := observability.NewObservability(config)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer obs.Shutdown(context.Background())
//
//	    // 2. Create managers
//	    metricsManager, err := observability.NewMetricsManager(obs.Meter)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    // 3. Setup health checks
//	    healthServer := observability.NewHealthServer("8080", config.ServiceName, config.ServiceVersion)
//	    healthServer.AddChecker("self", observability.NewBasicHealthChecker("self", func(ctx context.Context) error {
//	        return nil
//	    }))
//	    go healthServer.Start(context.Background())
//
//	    // 4. Attach to the broker and each agent
//	    b := broker.NewInProcessBroker(obs.Logger)
//	    b.SetMetrics(metricsManager)
//	    agent, _ := contentcreation.New(cfg, b, obs.Logger, contentcreation.Deps{})
//	    agent.SetMetrics(metricsManager)
//	}
//
// # Graceful Shutdown
//
// Always shut down observability to flush traces and metrics:
//
//	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
//	defer cancel()
//
//	if err := obs.Shutdown(ctx); err != nil {
//	    log.Printf("observability shutdown error: %v", err)
//	}
//
// Shutdown:
//  1. Flushes all pending traces to Jaeger
//  2. Exports final metrics to Prometheus
//  3. Closes all exporters
//  4. Releases resources
//
// Without shutdown, recent traces may be lost!
//
// # Integration with the Runner
//
// The observability package is wired from cmd/agenthub-runner/main.go:
//
//   - internal/broker.InProcessBroker.SetMetrics attaches a MetricsManager so
//     Publish/Consume record broker_publish/consume durations and connection
//     errors.
//   - internal/runtime.BaseAgent.SetMetrics attaches the same MetricsManager
//     so dispatch.go records events_processed/event_errors/processing
//     duration per handled task and event.
//   - internal/runtime.BaseAgent already owns a TraceManager internally
//     (constructed in runtime.New), so every agent gets span creation and
//     trace-context propagation without additional wiring.
//   - HealthServer exposes /health, /ready, and /metrics for the whole
//     process, with checkers for the broker and, when DATABASE_URL is set,
//     the connection pool.
//
// # Trace Visualization
//
// View traces in Jaeger UI:
//
//	http://localhost:16686
//
// Search by:
//   - Service name (e.g., "agenthub-runner")
//   - Operation name (e.g., "agent.content_creation_testing.handle_task")
//   - Tags (e.g., "task.id=task123")
//
// Trace structure for a typical task:
//
//	agent.strategy_development.handle_task (sender publishes a task)
//	  └─ agent.content_creation_testing.handle_task (receiver dispatches)
//	      └─ ... (handler business logic)
//
// # Metrics Dashboard
//
// View metrics via the health server's /metrics endpoint:
//
//	http://localhost:8080/metrics
//
// Example queries:
//
//	# Event processing rate
//	rate(events_processed_total[1m])
//
//	# Event error rate by type
//	rate(event_errors_total[1m])
//
//	# P95 processing duration
//	histogram_quantile(0.95, rate(event_processing_duration_seconds_bucket[5m]))
//
//	# Active goroutines
//	go_goroutines
//
// # Custom Span Attributes
//
// Add custom attributes to spans:
//
//	span.SetAttributes(
//	    attribute.String("custom.key", "value"),
//	    attribute.Int("custom.count", 42),
//	    attribute.Bool("custom.flag", true),
//	)
//
// Or use TraceManager helpers:
//
//	traceManager.AddComponentAttribute(span, "strategy_development")
//	traceManager.AddSpanEvent(span, "decision_made",
//	    attribute.String("agent", "ad_content_publishing"),
//	    attribute.String("reason", "platform_health_ok"),
//	)
//
// # Error Handling
//
// Observability initialization errors:
//   - OTLP endpoint unreachable: Logged but doesn't fail startup
//   - Invalid configuration: Returns error from NewObservability()
//   - Metrics creation failure: Returns error from NewMetricsManager()
//
// Runtime errors:
//   - Trace export failures: Logged via OpenTelemetry error handler
//   - Metric recording failures: Silently ignored (non-blocking)
//
// # Performance Considerations
//
// The observability package is designed for production:
//   - Asynchronous trace export (non-blocking)
//   - Efficient span attribute storage
//   - Metric aggregation before export
//   - Minimal overhead (<1ms per span)
//   - Batch trace export to reduce network calls
//   - Sampling support (currently AlwaysSample)
//
// # Thread Safety
//
// All components are thread-safe:
//   - TraceManager can be used from multiple goroutines
//   - MetricsManager is safe for concurrent use
//   - Logger is safe for concurrent use
//   - Shutdown can be called once safely
//
// # Best Practices
//
// **Always use context**:
//
//	ctx, span := traceManager.StartSpan(ctx, "operation")
//	defer span.End()
//	// Pass ctx to child operations
//
// **End spans with defer**:
//
//	ctx, span := traceManager.StartSpan(ctx, "operation")
//	defer span.End()  // Always ends, even on panic
//
// **Record errors**:
//
//	if err != nil {
//	    traceManager.RecordError(span, err)
//	    return err
//	}
//
// **Use structured logging**:
//
//	logger.InfoContext(ctx, "message", "key", value)  // Not: fmt.Sprintf
//
// **Shutdown gracefully**:
//
//	defer obs.Shutdown(context.Background())
//
// **Name spans consistently**:
//
//	// Good: component.operation
//	"agent.content_creation_testing.handle_task"
//	"broker.publish"
//
//	// Bad: inconsistent naming
//	"handleTask"
//	"Publish"
//
// # Related Packages
//
//   - internal/config: Provides configuration for observability settings
//   - internal/broker: Wired with MetricsManager for publish/consume metrics
//   - internal/runtime: Owns a TraceManager per agent and an optional
//     MetricsManager for dispatch metrics
package observability
