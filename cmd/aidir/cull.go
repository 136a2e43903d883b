package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/nikbrunner/aidir/internal/culler"
)

var cullQuiet bool

var cullCmd = &cobra.Command{
	Use:   "cull",
	Short: "Check every tool website and list the dead and unreachable ones",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := newEnv(ctx, envParams{})
		if err != nil {
			return err
		}
		defer e.close()
		if err := e.init(ctx); err != nil {
			return err
		}

		tools, err := e.loader.LoadFullCatalog(ctx)
		if err != nil {
			return fmt.Errorf("loading catalog: %w", err)
		}

		params := cullParams(e)
		var bar *progressbar.ProgressBar
		if !cullQuiet {
			bar = progressbar.NewOptions(len(tools),
				progressbar.OptionSetDescription("Checking websites"),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
			params.OnProgress = func(completed, total int) {
				_ = bar.Set(completed)
			}
		}

		results := culler.CheckURLs(ctx, tools, params)
		if bar != nil {
			_ = bar.Finish()
		}

		counts := culler.Summarize(results)
		fmt.Printf("Website check: %d of %d healthy (%d dead, %d unreachable, %d without URL)\n",
			counts[culler.Healthy], len(results), counts[culler.Dead], counts[culler.Unreachable], counts[culler.NoURL])

		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		for _, r := range results {
			if r.Status == culler.Healthy {
				continue
			}
			detail := r.Error
			if r.StatusCode != 0 {
				detail = fmt.Sprintf("HTTP %d", r.StatusCode)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Status, r.Tool.ID, r.Tool.Name, detail)
		}
		return tw.Flush()
	},
}

// cullParams builds website check settings from the config.
func cullParams(e *env) culler.Params {
	params := culler.Params{
		Concurrency:    e.cfg.Cull.Concurrency,
		Timeout:        e.cfg.Cull.Timeout,
		ExcludeDomains: e.cfg.Cull.ExcludeDomains,
		Logger:         e.logger,
	}
	if e.cfg.Cull.RatePerSecond > 0 {
		burst := e.cfg.Cull.RateBurst
		if burst < 1 {
			burst = 1
		}
		params.Limiter = rate.NewLimiter(rate.Limit(e.cfg.Cull.RatePerSecond), burst)
	}
	return params
}

func init() {
	cullCmd.Flags().BoolVarP(&cullQuiet, "quiet", "q", false, "hide the progress bar")
	rootCmd.AddCommand(cullCmd)
}
