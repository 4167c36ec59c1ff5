package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"clonewatch/internal/api"
	"clonewatch/internal/cache"
	"clonewatch/internal/model"
	"clonewatch/internal/preview"
)

const commandTimeout = 30 * time.Second

func runStatus(args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	jobID := fs.String("job", "", "job id")
	apiFlag := fs.String("api", api.BaseURLFromEnv(), "backend base URL")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	id := strings.TrimSpace(*jobID)
	if id == "" {
		return errors.New("--job is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	job, err := api.NewClient(*apiFlag).JobStatus(ctx, id)
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(job)
	}

	p := model.PresentStatus(job.Status)
	fmt.Printf("%s %s (%d%%)\n", p.Icon, p.Label, job.Progress)
	fmt.Println(kv("job", job.ID))
	fmt.Println(kv("url", job.URL))
	fmt.Println(kv("detail", p.Description))
	if msg := strings.TrimSpace(job.ErrorMessage); msg != "" {
		fmt.Println(kv("error", msg))
	}
	if !job.UpdatedAt.IsZero() {
		fmt.Println(kv("updated", job.UpdatedAt.Format(time.RFC3339)))
	}
	return nil
}

func runJobs(args []string) error {
	fs := flag.NewFlagSet("jobs", flag.ContinueOnError)
	apiFlag := fs.String("api", api.BaseURLFromEnv(), "backend base URL")
	cached := fs.Bool("cached", false, "show the offline copy from the last successful fetch")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	var jobs []model.Job
	if *cached {
		path, err := cache.DefaultPath()
		if err != nil {
			return err
		}
		h, err := cache.Load(path)
		if err != nil {
			return fmt.Errorf("no cached history (run clonewatch jobs online first): %w", err)
		}
		jobs = h.Jobs
		if !*jsonOut {
			fmt.Println(kv("cached_at", defaultIfEmpty(h.FetchedAt, "unknown")))
		}
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		client := api.NewClient(*apiFlag)
		var err error
		jobs, err = client.ListJobs(ctx)
		if err != nil {
			return err
		}
		saveHistoryCache(client.BaseURL(), jobs)
	}

	if *jsonOut {
		return printJSON(jobs)
	}
	if len(jobs) == 0 {
		fmt.Println("no jobs yet")
		fmt.Println("next: clonewatch clone --url <website>")
		return nil
	}
	for _, job := range jobs {
		fmt.Printf("%s  %s\n", job.ID, statusLine(job))
	}
	return nil
}

func runResult(args []string) error {
	fs := flag.NewFlagSet("result", flag.ContinueOnError)
	jobID := fs.String("job", "", "job id")
	out := fs.String("out", "", "output path (default clone-<job>.html)")
	apiFlag := fs.String("api", api.BaseURLFromEnv(), "backend base URL")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	id := strings.TrimSpace(*jobID)
	if id == "" {
		return errors.New("--job is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	res, err := api.NewClient(*apiFlag).FetchResult(ctx, id)
	if err != nil {
		return err
	}

	written, err := preview.Save(res, strings.TrimSpace(*out))
	if err != nil {
		return err
	}

	if *jsonOut {
		return printJSON(map[string]any{
			"job_id":     res.JobID,
			"saved":      written,
			"html_bytes": len(res.GeneratedHTML),
			"duration":   formatDuration(res.ProcessingDuration()),
		})
	}
	fmt.Println(kv("saved", written))
	fmt.Println(kv("html_size", fmt.Sprintf("%d bytes", len(res.GeneratedHTML))))
	fmt.Println(kv("duration", formatDuration(res.ProcessingDuration())))
	return nil
}

func runDelete(args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	jobID := fs.String("job", "", "job id")
	apiFlag := fs.String("api", api.BaseURLFromEnv(), "backend base URL")
	yes := fs.Bool("yes", false, "skip confirmation")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	id := strings.TrimSpace(*jobID)
	if id == "" {
		return errors.New("--job is required")
	}
	if !*yes {
		ok, err := promptConfirm(fmt.Sprintf("delete job %q from server history? [y/N] ", id))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("aborted")
			return nil
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	if err := api.NewClient(*apiFlag).DeleteJob(ctx, id); err != nil {
		return err
	}
	fmt.Printf("deleted job: %s\n", id)
	return nil
}
