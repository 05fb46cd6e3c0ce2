package adcontent

import "github.com/umt-agenthub/core/internal/errkind"

func errNoIntegration(brandID, platform string) error {
	return errkind.Newf(errkind.NotFound, "no %s integration found for brand %s", platform, brandID)
}
