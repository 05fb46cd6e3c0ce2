package adcontent

import (
	"context"
	"fmt"

	"github.com/umt-agenthub/core/internal/integrations"
)

// campaignAction is the lifecycle verb ad_campaign_management accepts,
// mapped onto the Adapter's generic Publish/Update/Delete contract —
// the Adapter interface has no campaign-specific verbs, so the action
// name travels in Content.Extra for the adapter to interpret.
type campaignAction string

const (
	campaignCreate campaignAction = "create"
	campaignUpdate campaignAction = "update"
	campaignPause  campaignAction = "pause"
	campaignResume campaignAction = "resume"
	campaignStop   campaignAction = "stop"
)

func parseCampaignAction(raw string) (campaignAction, error) {
	switch campaignAction(raw) {
	case campaignCreate, campaignUpdate, campaignPause, campaignResume, campaignStop:
		return campaignAction(raw), nil
	default:
		return "", fmt.Errorf("unsupported campaign action %q", raw)
	}
}

// ManageCampaign dispatches a campaign lifecycle action onto a single
// platform's Adapter.
func ManageCampaign(ctx context.Context, adapter integrations.Adapter, action campaignAction, campaignID string, content integrations.Content) (integrations.Result, error) {
	if content.Extra == nil {
		content.Extra = map[string]any{}
	}
	content.Extra["campaign_action"] = string(action)

	switch action {
	case campaignCreate:
		return adapter.Publish(ctx, content)
	case campaignUpdate, campaignPause, campaignResume, campaignStop:
		return adapter.Update(ctx, campaignID, content)
	default:
		return integrations.Result{}, fmt.Errorf("unsupported campaign action %q", action)
	}
}
