package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/opsix/opsix/preset"
	"github.com/opsix/opsix/report"
	"github.com/opsix/opsix/version"
)

func main() {
	templates := flag.String("t", "", "Directory of custom report templates.")
	feedback := flag.Int("feedback", 7, "Feedback level 0..7 shown in the algorithm sheet.")
	versionFlag := flag.Bool("v", false, "Print version.")
	flag.Usage = printUsage
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.VersionOrHash)
		os.Exit(0)
	}
	if err := run(*templates, *feedback, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(templates string, feedback int, args []string) error {
	var r *report.Reporter
	var err error
	if templates != "" {
		r, err = report.NewFromTemplates(templates)
	} else {
		r, err = report.New()
	}
	if err != nil {
		return err
	}
	if len(args) == 0 {
		args = []string{"algorithms"}
	}
	switch args[0] {
	case "algorithms":
		return r.Algorithms(os.Stdout, feedback)
	case "presets":
		bank, err := preset.Default()
		if err != nil {
			return err
		}
		return r.Bank(os.Stdout, bank)
	case "preset":
		if len(args) < 2 {
			return fmt.Errorf("preset: missing preset name")
		}
		bank, err := preset.Default()
		if err != nil {
			return err
		}
		patch, err := bank.Patch(bank.Find(args[1]))
		if err != nil {
			return fmt.Errorf("preset %q: %w", args[1], err)
		}
		return r.Patch(os.Stdout, patch)
	}
	return fmt.Errorf("unknown report %q", args[0])
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "opsix-info prints the algorithm library and the presets.\nUsage: %s [flags] [algorithms | presets | preset NAME]\n", os.Args[0])
	flag.PrintDefaults()
}
