package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"

	"clonewatch/internal/api"
	"clonewatch/internal/preview"
)

func runCopy(args []string) error {
	fs := flag.NewFlagSet("copy", flag.ContinueOnError)
	jobID := fs.String("job", "", "job id")
	apiFlag := fs.String("api", api.BaseURLFromEnv(), "backend base URL")
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
	if err := preview.Copy(res); err != nil {
		return err
	}
	fmt.Printf("copied %d bytes of raw HTML to the clipboard\n", len(res.GeneratedHTML))
	return nil
}

func runOpen(args []string) error {
	fs := flag.NewFlagSet("open", flag.ContinueOnError)
	jobID := fs.String("job", "", "job id")
	apiFlag := fs.String("api", api.BaseURLFromEnv(), "backend base URL")
	local := fs.Bool("local", false, "open the sanitized local preview instead of the server page")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	id := strings.TrimSpace(*jobID)
	if id == "" {
		return errors.New("--job is required")
	}

	client := api.NewClient(*apiFlag)

	if !*local {
		// Server-rendered preview; bypasses the local sanitizer on purpose.
		target := client.PreviewURL(id)
		if err := preview.OpenInBrowser(target); err != nil {
			return err
		}
		fmt.Println(kv("opened", target))
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	res, err := client.FetchResult(ctx, id)
	if err != nil {
		return err
	}
	r := preview.NewRenderer(res)
	if err := r.Open(); err != nil {
		return err
	}
	fmt.Println("opened sanitized local preview")
	return nil
}
