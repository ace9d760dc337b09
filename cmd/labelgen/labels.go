package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/labelgen/internal/app"
	"github.com/muurk/labelgen/internal/barcode"
	"github.com/muurk/labelgen/internal/catalog"
	"github.com/muurk/labelgen/internal/labels"
	"github.com/muurk/labelgen/internal/ui"
)

// Label command flags
var (
	selectAll      bool
	selectCategory string
	selectItems    []string
	labelQuantity  int
	fillPage       bool
	mergeOutput    bool
	labelTemplate  string
	outputName     string

	barcodeOutput string
	barcodeCode   string

	blankRows     int
	blankCols     int
	blankWidthMM  float64
	blankHeightMM float64
	forceCreate   bool
)

func init() {
	rootCmd.AddCommand(barcodeCmd)
	barcodeCmd.AddCommand(barcodeNumberCmd, barcodeParseCmd, barcodeRenderCmd)
	barcodeRenderCmd.Flags().StringVarP(&barcodeOutput, "output", "o", "", "PNG file to write (default: <code>.png)")
	barcodeRenderCmd.Flags().StringVar(&barcodeCode, "code", "", "Render this text instead of a product code")

	rootCmd.AddCommand(labelsCmd)
	labelsCmd.AddCommand(labelsGenerateCmd, labelsPlanCmd)
	for _, c := range []*cobra.Command{labelsGenerateCmd, labelsPlanCmd} {
		c.Flags().BoolVar(&selectAll, "all", false, "Select every product")
		c.Flags().StringVar(&selectCategory, "category", "", "Select every product in a category (name or ID)")
		c.Flags().StringArrayVar(&selectItems, "item", nil, "Select a product as category:id[:quantity] (repeatable)")
		c.Flags().IntVar(&labelQuantity, "quantity", 0, "Labels per product (default: labels.default_quantity)")
		c.Flags().BoolVar(&fillPage, "fill-page", false, "Fill one whole page per product")
		c.Flags().StringVar(&labelTemplate, "template", "", "Template name or path (default: workspace.template)")
	}
	labelsGenerateCmd.Flags().BoolVar(&mergeOutput, "merge", false, "Write all pages into one document (default: labels.merge)")
	labelsGenerateCmd.Flags().StringVar(&outputName, "output", "", "File name of the merged document")

	rootCmd.AddCommand(templateCmd)
	templateCmd.AddCommand(templateCreateCmd, templateInspectCmd, templateListCmd)
	def := labels.DefaultBlankSpec()
	templateCreateCmd.Flags().IntVar(&blankRows, "rows", def.Rows, "Label rows per page")
	templateCreateCmd.Flags().IntVar(&blankCols, "cols", def.Cols, "Label columns per page")
	templateCreateCmd.Flags().Float64Var(&blankWidthMM, "width", def.CellWidthMM, "Label width in mm")
	templateCreateCmd.Flags().Float64Var(&blankHeightMM, "height", def.CellHeightMM, "Label height in mm")
	templateCreateCmd.Flags().BoolVar(&forceCreate, "force", false, "Overwrite an existing file")
}

// ---- barcode ----

var barcodeCmd = &cobra.Command{
	Use:   "barcode",
	Short: "Compute and render label codes",
}

var barcodeNumberCmd = &cobra.Command{
	Use:   "number <category> <product-id>",
	Short: "Print the label code of a product",
	Long: `Print the label code for a category and product ID.

The code is "PPON-", the category ID, then the product ID padded to six
digits. The product does not need to exist.`,
	Example: `  labelgen barcode number "Phone straps" 12   # PPON-0000012`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		c, err := app.ResolveCategory(a.Store, args[0])
		if err != nil {
			return catalogFailure(cmd, "Unknown category", err)
		}
		id, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid product ID %q", args[1])
		}
		code, err := barcode.Number(c.ID, id)
		if err != nil {
			return err
		}
		if outputFormat == "json" {
			return printJSON(cmd, map[string]any{"category_id": c.ID, "product_id": id, "code": code})
		}
		fmt.Fprintln(cmd.OutOrStdout(), code)
		return nil
	},
}

var barcodeParseCmd = &cobra.Command{
	Use:   "parse <code>",
	Short: "Split a label code into category and product",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		catID, prodID, err := barcode.ParseNumber(args[0])
		if err != nil {
			return err
		}
		a, err := openApp()
		if err != nil {
			return err
		}

		details := []ui.Detail{
			{Key: "Category ID", Value: strconv.Itoa(catID)},
			{Key: "Product ID", Value: strconv.Itoa(prodID)},
		}
		if p, err := a.Store.Product(catID, prodID); err == nil {
			details = append(details,
				ui.Detail{Key: "Category", Value: p.CategoryName},
				ui.Detail{Key: "Product", Value: p.Name},
				ui.Detail{Key: "Price", Value: p.DisplayPrice()})
		} else {
			details = append(details, ui.Detail{Key: "Product", Value: "(not in workbook)"})
		}

		if outputFormat == "json" {
			out := make(map[string]string, len(details))
			for _, d := range details {
				out[d.Key] = d.Value
			}
			return printJSON(cmd, out)
		}
		printer(cmd).PrintSuccess(strings.TrimSpace(args[0]), details...)
		return nil
	},
}

var barcodeRenderCmd = &cobra.Command{
	Use:   "render [<category> <product-id>]",
	Short: "Render a Code128 barcode as PNG",
	Example: `  labelgen barcode render "Phone straps" 12
  labelgen barcode render 0 12 -o strap.png
  labelgen barcode render --code "PPON-0000012"`,
	Args: func(cmd *cobra.Command, args []string) error {
		if barcodeCode != "" {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(2)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		code := barcodeCode
		if code == "" {
			p, err := lookupProduct(a, args[0], args[1])
			if err != nil {
				return catalogFailure(cmd, "Product not found", err)
			}
			code = p.Code()
		}

		data, err := a.Renderer.Render(code)
		if err != nil {
			return fmt.Errorf("render %s: %w", code, err)
		}
		dest := barcodeOutput
		if dest == "" {
			dest = labels.SafeFileName(code) + ".png"
		}
		if err := os.WriteFile(dest, data, 0644); err != nil {
			return fmt.Errorf("write %s: %w", dest, err)
		}

		opts := a.Renderer.Options()
		printer(cmd).PrintSuccess("Barcode rendered",
			ui.Detail{Key: "Code", Value: code},
			ui.Detail{Key: "File", Value: dest},
			ui.Detail{Key: "Resolution", Value: fmt.Sprintf("%d dpi", opts.DPI)})
		return nil
	},
}

// ---- labels ----

var labelsCmd = &cobra.Command{
	Use:   "labels",
	Short: "Generate label sheets",
	Long: `Generate label sheets from the catalog.

Select products with --all, --category or one --item per product. Each
product gets --quantity labels (or its own item quantity). Labels fill the
template grid row by row; a new product always starts a new page.`,
}

var labelsGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write label documents",
	Example: `  # Three labels for each of two products
  labelgen labels generate --item "Phone straps:1:3" --item "Phone straps:2:3"

  # One full page for every product in a category, merged into one file
  labelgen labels generate --category "Ribbon keyrings" --fill-page --merge

  # Every product, one label each, custom template
  labelgen labels generate --all --template small.docx`,
	Args: cobra.NoArgs,
	RunE: runLabelsGenerate,
}

var labelsPlanCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show how labels would be laid out without writing files",
	Args:  cobra.NoArgs,
	RunE:  runLabelsPlan,
}

// selectedRequests turns the selection flags into label requests.
func selectedRequests(a *app.App) ([]labels.Request, error) {
	if len(selectItems) > 0 {
		sels := make([]app.Selection, 0, len(selectItems))
		for _, s := range selectItems {
			sel, err := app.ParseSelection(s)
			if err != nil {
				return nil, err
			}
			if sel.Quantity == 0 {
				sel.Quantity = labelQuantity
			}
			if err := catalog.ValidateQuantity(max(sel.Quantity, 1)); err != nil {
				return nil, err
			}
			sels = append(sels, sel)
		}
		return a.Requests(sels)
	}
	if selectAll || selectCategory != "" {
		if labelQuantity != 0 {
			if err := catalog.ValidateQuantity(labelQuantity); err != nil {
				return nil, err
			}
		}
		return a.AllRequests(selectCategory, labelQuantity)
	}
	return nil, catalog.NewValidationError("selection", "no products selected; use --all, --category or --item")
}

func labelGenerator(cmd *cobra.Command, a *app.App) (*labels.Generator, error) {
	return a.Generator(labelTemplate, func(o *labels.Options) {
		o.FillPage = fillPage
		if cmd.Flags().Changed("merge") {
			o.Merge = mergeOutput
		}
		if outputName != "" {
			o.OutputName = outputName
		}
	})
}

func runLabelsPlan(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	reqs, err := selectedRequests(a)
	if err != nil {
		return catalogFailure(cmd, "Cannot plan labels", err)
	}
	gen, err := labelGenerator(cmd, a)
	if err != nil {
		return err
	}
	pages, err := gen.Plan(reqs)
	if err != nil {
		return err
	}

	if outputFormat == "json" {
		type planPage struct {
			Index  int    `json:"index"`
			File   string `json:"file"`
			Name   string `json:"name"`
			Labels int    `json:"labels"`
		}
		names := labels.PageFileNames(pages)
		out := make([]planPage, len(pages))
		for i, p := range pages {
			out[i] = planPage{Index: p.Index, File: names[i], Name: p.Name, Labels: len(p.Items)}
		}
		return printJSON(cmd, out)
	}
	if outputFormat == "compact" {
		fmt.Fprint(cmd.OutOrStdout(), labels.FormatPlan(pages, gen.Template().Capacity))
		return nil
	}
	p := printer(cmd)
	p.PrintHeader("Label Plan", "labelgen labels plan",
		ui.Detail{Key: "Template", Value: gen.Template().Summary()},
		ui.Detail{Key: "Products", Value: strconv.Itoa(len(reqs))},
		ui.Detail{Key: "Pages", Value: strconv.Itoa(len(pages))})
	p.Print(labels.FormatPlan(pages, gen.Template().Capacity))
	return nil
}

func runLabelsGenerate(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	reqs, err := selectedRequests(a)
	if err != nil {
		return catalogFailure(cmd, "Cannot generate labels", err)
	}
	gen, err := labelGenerator(cmd, a)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	if outputFormat == "json" {
		res, err := gen.Generate(ctx, reqs, nil)
		if err != nil {
			return err
		}
		return printJSON(cmd, map[string]any{
			"files":          res.Files,
			"pages":          res.Pages,
			"labels":         res.Labels,
			"missing_images": res.MissingImages,
			"duration_ms":    res.Duration.Milliseconds(),
		})
	}

	opts := gen.Options()
	params := []ui.Detail{
		{Key: "Template", Value: gen.Template().Summary()},
		{Key: "Products", Value: strconv.Itoa(len(reqs))},
		{Key: "Output", Value: opts.OutputDir},
		{Key: "Merge", Value: strconv.FormatBool(opts.Merge)},
	}
	if opts.FillPage {
		params = append(params, ui.Detail{Key: "Quantity", Value: "one page per product"})
	}

	runner := ui.NewRunner(ui.RunnerConfig{
		Title:     "Label Generation",
		Command:   "labelgen labels generate",
		Params:    params,
		StepNames: app.GenerationSteps,
		Output:    cmd.OutOrStdout(),
		Troubleshooting: []string{
			"Check that the template's first table is the label grid",
			"Close output documents that are open in a word processor",
			"Run 'labelgen labels plan' with the same flags to check the selection",
		},
		Hint: catalog.GetTroubleshootingHint,
	})
	return runner.Run(ctx, func(ctx context.Context, onStep ui.StepCallback) ([]ui.Detail, error) {
		res, err := gen.Generate(ctx, reqs, app.StepReporter(onStep))
		if err != nil {
			return nil, err
		}
		files := make([]string, len(res.Files))
		for i, f := range res.Files {
			files[i] = filepath.Base(f)
		}
		details := []ui.Detail{
			{Key: "Files", Value: strings.Join(files, ", ")},
			{Key: "Pages", Value: strconv.Itoa(res.Pages)},
			{Key: "Labels", Value: strconv.Itoa(res.Labels)},
		}
		if len(res.MissingImages) > 0 {
			details = append(details, ui.Detail{Key: "Text only", Value: strings.Join(res.MissingImages, ", ")})
		}
		return details, nil
	})
}

// ---- templates ----

var templateCmd = &cobra.Command{
	Use:     "template",
	Aliases: []string{"templates"},
	Short:   "Create and inspect label templates",
	Long: `Create and inspect label templates.

A template is a .docx document whose first table is the label grid. Every
cell of that table is one label; the table is repeated once per page.`,
}

var templateCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a blank label template",
	Long: `Create a blank A4 template with an evenly spaced label grid. A bare
name is created in the workspace templates directory.`,
	Example: `  labelgen template create shop.docx
  labelgen template create small.docx --rows 8 --cols 3 --width 63.5 --height 33.9`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		path := args[0]
		if !strings.EqualFold(filepath.Ext(path), ".docx") {
			path += ".docx"
		}
		if !filepath.IsAbs(path) && filepath.Base(path) == path {
			path = filepath.Join(a.Workspace.TemplateDir(), path)
		}

		spec := labels.DefaultBlankSpec()
		spec.Rows, spec.Cols = blankRows, blankCols
		spec.CellWidthMM, spec.CellHeightMM = blankWidthMM, blankHeightMM
		if err := labels.CreateBlankTemplate(path, spec, forceCreate); err != nil {
			return err
		}
		printer(cmd).PrintSuccess("Template created",
			ui.Detail{Key: "File", Value: path},
			ui.Detail{Key: "Grid", Value: fmt.Sprintf("%d × %d", spec.Rows, spec.Cols)},
			ui.Detail{Key: "Label", Value: fmt.Sprintf("%g × %g mm", spec.CellWidthMM, spec.CellHeightMM)})
		return nil
	},
}

var templateInspectCmd = &cobra.Command{
	Use:   "inspect [name]",
	Short: "Show a template's label grid",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		name := ""
		if len(args) == 1 {
			name = args[0]
		}
		tpl, err := a.LoadTemplate(name)
		if err != nil {
			return err
		}
		switch outputFormat {
		case "json":
			return printJSON(cmd, map[string]any{
				"path":           tpl.Path,
				"rows":           tpl.Rows,
				"cols":           tpl.Cols,
				"capacity":       tpl.Capacity,
				"cell_width_mm":  tpl.CellWidthMM,
				"cell_height_mm": tpl.CellHeightMM,
			})
		case "compact":
			fmt.Fprintln(cmd.OutOrStdout(), tpl.Summary())
		default:
			fmt.Fprint(cmd.OutOrStdout(), tpl.FormatDetailed())
		}
		return nil
	},
}

var templateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List templates in the workspace",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		files, err := a.Workspace.ListTemplates()
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(files))
		for _, f := range files {
			grid := "(not a label template)"
			if tpl, err := labels.LoadTemplate(f.Path); err == nil {
				grid = fmt.Sprintf("%d×%d, %d per page", tpl.Rows, tpl.Cols, tpl.Capacity)
			}
			name := f.Name
			if name == a.TemplateName() {
				name += " *"
			}
			rows = append(rows, []string{name, grid, f.ModTime.Format(time.DateTime)})
		}
		printer(cmd).PrintTable([]string{"Template", "Grid", "Modified"}, rows)
		return nil
	},
}
