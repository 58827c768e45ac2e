package render

import (
	"context"
	"fmt"
	"os/exec"
)

// Convert runs pandoc over a rendered Markdown page once per requested
// output format, writing "<path>.<format>" next to the source file.
func (r *Renderer) Convert(ctx context.Context, path string, formats []string) error {
	for _, format := range formats {
		out := fmt.Sprintf("%s.%s", path, format)
		cmd := exec.CommandContext(ctx, "pandoc", path, "--from", "markdown", "-s", "-o", out)
		if output, err := cmd.CombinedOutput(); err != nil {
			return fmt.Errorf("pandoc conversion of %s to %s failed: %w: %s", path, format, err, output)
		}
		r.logger.Info("converted page", "path", out, "format", format)
	}
	return nil
}
