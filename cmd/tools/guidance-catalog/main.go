// Command guidance-catalog validates and inspects operator guidance catalogs.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"candidate-onboarding/pkg/guidance"
)

func main() {
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	validatePath := validateCmd.String("path", "", "Catalog file (empty for the embedded catalog)")

	listCmd := flag.NewFlagSet("list", flag.ExitOnError)
	listPath := listCmd.String("path", "", "Catalog file (empty for the embedded catalog)")

	showCmd := flag.NewFlagSet("show", flag.ExitOnError)
	showPath := showCmd.String("path", "", "Catalog file (empty for the embedded catalog)")
	stage := showCmd.String("stage", "", "Stage (lead, profile, readiness, interview, onboarding)")
	code := showCmd.String("code", "", "Error code (e.g., IDENTITY_CHECK_FAILED)")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "validate":
		validateCmd.Parse(os.Args[2:])
		c := load(*validatePath)
		fmt.Printf("Catalog %s is valid (%d entries).\n", c.Version, len(c.Keys()))

	case "list":
		listCmd.Parse(os.Args[2:])
		for _, k := range load(*listPath).Keys() {
			fmt.Println(k)
		}

	case "show":
		showCmd.Parse(os.Args[2:])
		if *stage == "" || *code == "" {
			fmt.Println("Error: stage and code are required for show.")
			showCmd.Usage()
			os.Exit(1)
		}
		e, ok := load(*showPath).Lookup(*stage, strings.ToUpper(*code))
		if !ok {
			fmt.Printf("No guidance for %s/%s\n", *stage, *code)
			os.Exit(1)
		}
		fmt.Println(e.UserMessage)
		if e.WhyRetry != "" {
			fmt.Printf("Why retry: %s\n", e.WhyRetry)
		}
		if e.RetryScheduleText != "" {
			fmt.Printf("Schedule:  %s\n", e.RetryScheduleText)
		}
		for _, tip := range e.Tips {
			fmt.Printf("  - %s\n", tip)
		}

	default:
		help()
	}
}

func load(path string) *guidance.Catalog {
	c, err := guidance.LoadCatalog(path)
	if err != nil {
		fmt.Printf("Catalog validation failed: %v\n", err)
		os.Exit(1)
	}
	return c
}

func help() {
	fmt.Println("Usage: guidance-catalog <command> [flags]")
	fmt.Println("Commands:")
	fmt.Println("  validate -path <file>")
	fmt.Println("  list     -path <file>")
	fmt.Println("  show     -path <file> -stage <stage> -code <code>")
}
