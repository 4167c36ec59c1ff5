package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os/exec"
	"time"

	"clonewatch/internal/api"
	"clonewatch/internal/preview"
)

type doctorCheck struct {
	Name    string `json:"name"`
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

type doctorReport struct {
	OK     bool          `json:"ok"`
	Checks []doctorCheck `json:"checks"`
}

func runDoctor(args []string) error {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	apiFlag := fs.String("api", api.BaseURLFromEnv(), "backend base URL")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	report := doctorReport{OK: true}
	add := func(name string, ok bool, msg string) {
		report.Checks = append(report.Checks, doctorCheck{Name: name, OK: ok, Message: msg})
		if !ok {
			report.OK = false
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	client := api.NewClient(*apiFlag)
	if err := client.Ping(ctx); err != nil {
		add("backend", false, fmt.Sprintf("%s unreachable: %v", client.BaseURL(), err))
	} else {
		add("backend", true, client.BaseURL())
	}

	browser, _ := preview.BrowserCommand()
	if path, err := exec.LookPath(browser); err != nil {
		add("browser_opener", false, browser+" not found on PATH; open commands will fail")
	} else {
		add("browser_opener", true, path)
	}

	if *jsonOut {
		return printJSON(report)
	}
	for _, c := range report.Checks {
		status := "ok"
		if !c.OK {
			status = "fail"
		}
		fmt.Printf("%s: %s (%s)\n", c.Name, status, c.Message)
	}
	if !report.OK {
		return errors.New("doctor checks failed")
	}
	fmt.Println("doctor: all checks passed")
	return nil
}
