package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/trezcool/escolar/core/report"
)

var (
	writeFileFunc = ioutil.WriteFile // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	svc     *report.Service
	tplRepo report.TemplateRepository
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  generate [-template ID] [-curso CURSO] [-estado ESTADO] [-desde YYYY-MM-DD] [-hasta YYYY-MM-DD] [-out DIR] - generate a report document")
	fmt.Println("  templates - list saved report templates")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	generateCmd := flag.NewFlagSet("generate", flag.ExitOnError)
	generateTemplate := generateCmd.String("template", "", "The template id. A built-in general template is used when omitted.")
	generateCourse := generateCmd.String("curso", "", "Course filter, matched as a substring.")
	generateStatus := generateCmd.String("estado", "", "Status filter, matched exactly.")
	generateFrom := generateCmd.String("desde", "", "Registration date lower bound (YYYY-MM-DD, inclusive).")
	generateTo := generateCmd.String("hasta", "", "Registration date upper bound (YYYY-MM-DD, inclusive).")
	generateOut := generateCmd.String("out", ".", "Directory the document is written to.")

	templatesCmd := flag.NewFlagSet("templates", flag.ExitOnError)

	switch args[1] {
	case "generate":
		if err := generateCmd.Parse(args[2:]); err != nil {
			return err
		}
		criteria := report.Criteria{
			Course:   *generateCourse,
			Status:   *generateStatus,
			DateFrom: *generateFrom,
			DateTo:   *generateTo,
		}
		return cli.generate(criteria, *generateTemplate, *generateOut)
	case "templates":
		if err := templatesCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.listTemplates()
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) generate(criteria report.Criteria, templateID, outDir string) error {
	doc, err := cli.svc.GenerateReport(context.Background(), criteria, templateID)
	if err != nil {
		return err
	}

	path := filepath.Join(outDir, doc.Filename)
	if err := writeFileFunc(path, doc.Content, os.FileMode(0644)); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d pages)\n", path, doc.Pages)
	return nil
}

func (cli *commandLine) listTemplates() error {
	tpls, err := cli.tplRepo.QueryAllTemplates(context.Background())
	if err != nil {
		return err
	}
	if len(tpls) == 0 {
		fmt.Println("no saved templates")
		return nil
	}
	for _, tpl := range tpls {
		cols := strings.Join(tpl.Columns, ", ")
		if cols == "" {
			cols = "(auto)"
		}
		fmt.Printf("%s\t%s\t[%s]\t%s\n", tpl.ID, tpl.Name, tpl.RawKind, cols)
	}
	return nil
}
