package cli

import (
	"fmt"

	"clonewatch/internal/version"
)

func Run(args []string) error {
	if len(args) == 0 {
		printRootUsage()
		return nil
	}

	switch args[0] {
	case "clone":
		return runClone(args[1:])
	case "status":
		return runStatus(args[1:])
	case "jobs":
		return runJobs(args[1:])
	case "result":
		return runResult(args[1:])
	case "delete":
		return runDelete(args[1:])
	case "copy":
		return runCopy(args[1:])
	case "open":
		return runOpen(args[1:])
	case "watch":
		return runWatch(args[1:])
	case "doctor":
		return runDoctor(args[1:])
	case "version":
		fmt.Println(version.Value)
		return nil
	case "help", "-h", "--help":
		printRootUsage()
		return nil
	default:
		printRootUsage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printRootUsage() {
	fmt.Println("clonewatch: submit and track website cloning jobs")
	fmt.Println()
	fmt.Println("Quick Start:")
	fmt.Println("  clonewatch clone --url example.com")
	fmt.Println("  clonewatch jobs")
	fmt.Println("  clonewatch watch")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  clone    submit a URL and follow the job to completion")
	fmt.Println("  status   show the latest status of a job")
	fmt.Println("  jobs     list job history (add --cached for the offline copy)")
	fmt.Println("  result   fetch a finished clone and save the raw HTML")
	fmt.Println("  delete   remove a job from server history")
	fmt.Println("  copy     put the raw generated HTML on the clipboard")
	fmt.Println("  open     open a job's preview in the browser (--local for the sanitized copy)")
	fmt.Println("  watch    interactive dashboard: submit, track, browse, export")
	fmt.Println("  doctor   check backend reachability and local helpers")
	fmt.Println("  version  print the client version")
	fmt.Println()
	fmt.Println("Notes:")
	fmt.Println("  - Backend address: --api flag or CLONEWATCH_API_URL (default http://localhost:8000)")
	fmt.Println("  - Use --json on listing commands for machine-readable output")
}
