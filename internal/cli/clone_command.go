package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"clonewatch/internal/api"
	"clonewatch/internal/cache"
	"clonewatch/internal/model"
	"clonewatch/internal/preview"
	"clonewatch/internal/track"
)

func runClone(args []string) error {
	fs := flag.NewFlagSet("clone", flag.ContinueOnError)
	urlFlag := fs.String("url", "", "website URL to clone")
	apiFlag := fs.String("api", api.BaseURLFromEnv(), "backend base URL")
	noFollow := fs.Bool("no-follow", false, "submit and exit without tracking the job")
	screenshots := fs.Bool("screenshots", true, "capture screenshots while scraping")
	dom := fs.Bool("dom", true, "capture the DOM structure while scraping")
	styles := fs.Bool("styles", true, "capture computed styles while scraping")
	interval := fs.Duration("interval", track.DefaultInterval, "delay between status polls")
	out := fs.String("out", "", "save the generated HTML here on completion")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	target := strings.TrimSpace(*urlFlag)
	if target == "" && fs.NArg() > 0 {
		target = strings.TrimSpace(fs.Arg(0))
	}
	if target == "" {
		var err error
		target, err = promptRequired("website URL")
		if err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := api.NewClient(*apiFlag)
	store := track.NewStore()

	opts := api.CloneOptions{
		IncludeScreenshots: *screenshots,
		IncludeDOM:         *dom,
		IncludeStyles:      *styles,
	}

	showProgress := !*jsonOut && stdinIsTTY()
	ctrl := track.NewController(client, store, track.Options{
		Interval: *interval,
		OnUpdate: func(job model.Job) {
			if showProgress {
				fmt.Printf("\r\033[2K%s", followLine(job))
			}
		},
	})

	jobID, err := ctrl.Submit(ctx, target, opts)
	if err != nil {
		return err
	}

	if *noFollow {
		if *jsonOut {
			return printJSON(map[string]string{"job_id": jobID})
		}
		fmt.Printf("job submitted: %s\n", jobID)
		fmt.Printf("next: clonewatch status --job %s\n", jobID)
		return nil
	}

	followErr := ctrl.Follow(ctx, jobID)
	if showProgress {
		fmt.Println()
	}
	if followErr != nil {
		return followErr
	}

	snap := store.Snapshot()
	saveHistoryCache(client.BaseURL(), snap.History)

	if *jsonOut {
		return printJSON(cloneOutcome(jobID, snap))
	}
	return printCloneOutcome(jobID, snap, *out)
}

// followLine is the single-line live progress rendering used while a job is
// tracked in plain-text mode.
func followLine(job model.Job) string {
	p := model.PresentStatus(job.Status)
	parts := []string{fmt.Sprintf("[%s]", job.ID), p.Icon + " " + strings.ToLower(p.Label)}
	if idx := model.StageIndex(job.Status); idx >= 0 {
		parts = append(parts, fmt.Sprintf("stage %d/%d", idx+1, model.StageCount()))
	}
	parts = append(parts, fmt.Sprintf("%d%%", job.Progress))
	return strings.Join(parts, "  ")
}

type cloneSummary struct {
	JobID        string   `json:"job_id"`
	Status       string   `json:"status"`
	ErrorMessage string   `json:"error_message,omitempty"`
	Duration     string   `json:"duration,omitempty"`
	Title        string   `json:"title,omitempty"`
	HTMLBytes    int      `json:"html_bytes,omitempty"`
	Colors       []string `json:"colors,omitempty"`
	Fonts        []string `json:"fonts,omitempty"`
}

func cloneOutcome(jobID string, snap track.Snapshot) cloneSummary {
	s := cloneSummary{JobID: jobID}
	if snap.State == track.StateViewing && snap.Result != nil {
		res := snap.Result
		s.Status = model.StatusCompleted
		s.Duration = formatDuration(res.ProcessingDuration())
		s.HTMLBytes = len(res.GeneratedHTML)
		if sd := res.ScrapedData; sd != nil {
			s.Title = sd.Title
			s.Colors = firstN(sd.ColorPalette, 5)
			s.Fonts = firstN(sd.Fonts, 3)
		}
		return s
	}
	s.Status = snap.Job.Status
	s.ErrorMessage = snap.Job.ErrorMessage
	if snap.TrackErr != nil {
		s.ErrorMessage = snap.TrackErr.Error()
	}
	return s
}

func printCloneOutcome(jobID string, snap track.Snapshot, outPath string) error {
	if snap.State == track.StateViewing && snap.Result != nil {
		res := *snap.Result
		p := model.PresentStatus(model.StatusCompleted)
		fmt.Printf("%s %s\n", p.Icon, p.Label)
		fmt.Println(kv("job", jobID))
		fmt.Println(kv("duration", formatDuration(res.ProcessingDuration())))
		fmt.Println(kv("html_size", fmt.Sprintf("%d bytes", len(res.GeneratedHTML))))
		if sd := res.ScrapedData; sd != nil {
			if sd.Title != "" {
				fmt.Println(kv("title", sd.Title))
			}
			if len(sd.ColorPalette) > 0 {
				fmt.Println(kv("colors", strings.Join(firstN(sd.ColorPalette, 5), " ")))
			}
			if len(sd.Fonts) > 0 {
				fmt.Println(kv("fonts", strings.Join(firstN(sd.Fonts, 3), ", ")))
			}
		}
		if outPath != "" {
			written, err := preview.Save(res, outPath)
			if err != nil {
				return err
			}
			fmt.Println(kv("saved", written))
		} else {
			fmt.Printf("next: clonewatch result --job %s\n", jobID)
		}
		return nil
	}

	if snap.TrackErr != nil {
		return snap.TrackErr
	}
	p := model.PresentStatus(snap.Job.Status)
	fmt.Printf("%s %s\n", p.Icon, p.Label)
	if msg := strings.TrimSpace(snap.Job.ErrorMessage); msg != "" {
		fmt.Println(kv("error", msg))
	}
	return errors.New("clone did not complete")
}

func firstN(values []string, n int) []string {
	if len(values) <= n {
		return values
	}
	return values[:n]
}

// saveHistoryCache is best effort; a cache write failure never fails the
// command that triggered it.
func saveHistoryCache(baseURL string, jobs []model.Job) {
	if len(jobs) == 0 {
		return
	}
	path, err := cache.DefaultPath()
	if err != nil {
		return
	}
	_ = cache.Save(path, baseURL, jobs)
}
