package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/muurk/labelgen/internal/api"
	"github.com/muurk/labelgen/internal/app"
	"github.com/muurk/labelgen/internal/catalog"
	"github.com/muurk/labelgen/internal/ui"
)

// Catalog command flags
var (
	categoryID      int
	productCategory string
	productName     string
	productPrice    string
	productID       int
	moveToCategory  string
	assumeYes       bool
)

func init() {
	rootCmd.AddCommand(categoryCmd)
	categoryCmd.AddCommand(categoryListCmd, categoryAddCmd, categoryRenameCmd, categorySetIDCmd, categoryDeleteCmd)

	categoryAddCmd.Flags().IntVar(&categoryID, "id", -1, "Category ID (default: next free ID)")
	categoryDeleteCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Do not ask for confirmation")

	rootCmd.AddCommand(productCmd)
	productCmd.AddCommand(productListCmd, productShowCmd, productAddCmd, productUpdateCmd, productDeleteCmd)

	productListCmd.Flags().StringVar(&productCategory, "category", "", "Only list this category (name or ID)")

	productAddCmd.Flags().StringVar(&productCategory, "category", "", "Category name or ID")
	productAddCmd.Flags().StringVar(&productName, "name", "", "Product name printed on the label")
	productAddCmd.Flags().StringVar(&productPrice, "price", "", "Price, e.g. 12000 or 12,000")
	productAddCmd.Flags().IntVar(&productID, "id", 0, "Product ID (default: next free ID in the category)")
	_ = productAddCmd.MarkFlagRequired("category")
	_ = productAddCmd.MarkFlagRequired("name")
	_ = productAddCmd.MarkFlagRequired("price")

	productUpdateCmd.Flags().StringVar(&productName, "name", "", "New name")
	productUpdateCmd.Flags().StringVar(&productPrice, "price", "", "New price")
	productUpdateCmd.Flags().StringVar(&moveToCategory, "move-to", "", "Move to another category (name or ID)")
	productUpdateCmd.Flags().IntVar(&productID, "new-id", 0, "New product ID")

	productDeleteCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Do not ask for confirmation")
}

// ---- categories ----

var categoryCmd = &cobra.Command{
	Use:     "category",
	Aliases: []string{"categories", "type"},
	Short:   "Manage product categories",
	Long: `Manage the categories stored on the workbook's "type" sheet.

A category's ID is the first part of every label code in it, so changing
the ID of a category changes the codes of all of its products.`,
}

var categoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List categories with their product counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		cats := a.Store.Categories()
		counts := a.Store.CategoryCounts()

		switch outputFormat {
		case "json":
			out := make([]api.Category, len(cats))
			for i, c := range cats {
				out[i] = api.Category{ID: c.ID, Name: c.Name, Products: counts[c.ID]}
			}
			return printJSON(cmd, out)
		case "compact":
			fmt.Fprint(cmd.OutOrStdout(), catalog.FormatCategoriesCompact(cats, counts))
		default:
			rows := make([][]string, len(cats))
			for i, c := range cats {
				rows[i] = []string{strconv.Itoa(c.ID), c.Name, strconv.Itoa(counts[c.ID])}
			}
			printer(cmd).PrintTable([]string{"ID", "Name", "Products"}, rows)
		}
		return nil
	},
}

var categoryAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a category",
	Example: `  # Next free ID
  labelgen category add "Hair pins"

  # Explicit ID
  labelgen category add "Hair pins" --id 7`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		var id *int
		if cmd.Flags().Changed("id") {
			id = &categoryID
		}
		c, err := a.Store.AddCategory(args[0], id)
		if err != nil {
			return catalogFailure(cmd, "Cannot add category", err)
		}
		if outputFormat == "json" {
			return printJSON(cmd, api.Category{ID: c.ID, Name: c.Name})
		}
		printer(cmd).PrintSuccess("Category added",
			ui.Detail{Key: "Name", Value: c.Name},
			ui.Detail{Key: "ID", Value: strconv.Itoa(c.ID)})
		return nil
	},
}

var categoryRenameCmd = &cobra.Command{
	Use:   "rename <category> <new-name>",
	Short: "Rename a category",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		c, err := app.ResolveCategory(a.Store, args[0])
		if err != nil {
			return catalogFailure(cmd, "Cannot rename category", err)
		}
		if err := a.Store.RenameCategory(c.Name, args[1]); err != nil {
			return catalogFailure(cmd, "Cannot rename category", err)
		}
		printer(cmd).PrintSuccess("Category renamed",
			ui.Detail{Key: "From", Value: c.Name},
			ui.Detail{Key: "To", Value: args[1]})
		return nil
	},
}

var categorySetIDCmd = &cobra.Command{
	Use:   "set-id <category> <id>",
	Short: "Change a category's ID",
	Long: `Change a category's ID. Products in the category keep their product IDs
but their label codes change, so labels printed earlier no longer match.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		id, err := strconv.Atoi(args[1])
		if err != nil {
			return catalogFailure(cmd, "Cannot change category ID", catalog.NewValidationError("id", "ID must be a number"))
		}
		c, err := app.ResolveCategory(a.Store, args[0])
		if err != nil {
			return catalogFailure(cmd, "Cannot change category ID", err)
		}
		if err := a.Store.SetCategoryID(c.Name, id); err != nil {
			return catalogFailure(cmd, "Cannot change category ID", err)
		}
		printer(cmd).PrintSuccess("Category ID changed",
			ui.Detail{Key: "Category", Value: c.Name},
			ui.Detail{Key: "Old ID", Value: strconv.Itoa(c.ID)},
			ui.Detail{Key: "New ID", Value: strconv.Itoa(id)},
			ui.Detail{Key: "Products", Value: strconv.Itoa(a.Store.CategoryCounts()[id])})
		return nil
	},
}

var categoryDeleteCmd = &cobra.Command{
	Use:   "delete <category>",
	Short: "Delete an empty category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		c, err := app.ResolveCategory(a.Store, args[0])
		if err != nil {
			return catalogFailure(cmd, "Cannot delete category", err)
		}
		if !confirmDestructive(cmd, a, assumeYes, "Delete category "+c.Name,
			[]string{"The category is removed from the workbook", "'labelgen workbook undo' restores it"}) {
			return nil
		}
		if err := a.Store.DeleteCategory(c.Name); err != nil {
			return catalogFailure(cmd, "Cannot delete category", err)
		}
		printer(cmd).PrintSuccess("Category deleted", ui.Detail{Key: "Name", Value: c.Name})
		return nil
	},
}

// ---- products ----

var productCmd = &cobra.Command{
	Use:     "product",
	Aliases: []string{"products"},
	Short:   "Manage products",
	Long: `Manage the products stored on the workbook's "product" sheet.

A product is identified by its category and product ID, which together
form its label code: PPON-<category ID><product ID as 6 digits>.`,
}

var productListCmd = &cobra.Command{
	Use:   "list",
	Short: "List products",
	Example: `  labelgen product list
  labelgen product list --category "Ribbon keyrings" --format compact`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		products := a.Store.Products()
		cats := a.Store.Categories()
		if productCategory != "" {
			c, err := app.ResolveCategory(a.Store, productCategory)
			if err != nil {
				return catalogFailure(cmd, "Cannot list products", err)
			}
			products = a.Store.ProductsInCategory(c.ID)
			cats = []catalog.Category{c}
		}

		switch outputFormat {
		case "json":
			out := make([]api.Product, len(products))
			for i, p := range products {
				out[i] = api.FromProduct(p)
			}
			return printJSON(cmd, out)
		case "compact":
			fmt.Fprint(cmd.OutOrStdout(), catalog.FormatProductsCompact(products))
		default:
			fmt.Fprint(cmd.OutOrStdout(), catalog.FormatCatalogDetailed(cats, products))
		}
		return nil
	},
}

// lookupProduct resolves "<category> <id>" arguments.
func lookupProduct(a *app.App, categoryRef, idArg string) (catalog.Product, error) {
	id, err := strconv.Atoi(idArg)
	if err != nil {
		return catalog.Product{}, catalog.NewValidationError("id", fmt.Sprintf("invalid product ID %q", idArg))
	}
	c, err := app.ResolveCategory(a.Store, categoryRef)
	if err != nil {
		return catalog.Product{}, err
	}
	return a.Store.Product(c.ID, id)
}

var productShowCmd = &cobra.Command{
	Use:   "show <category> <id>",
	Short: "Show one product",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		p, err := lookupProduct(a, args[0], args[1])
		if err != nil {
			return catalogFailure(cmd, "Product not found", err)
		}
		switch outputFormat {
		case "json":
			return printJSON(cmd, api.FromProduct(p))
		case "compact":
			fmt.Fprintln(cmd.OutOrStdout(), p.Summary())
		default:
			fmt.Fprint(cmd.OutOrStdout(), p.FormatDetailed())
		}
		return nil
	},
}

var productAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a product",
	Example: `  labelgen product add --category "Phone straps" --name "Pearl strap" --price 12000
  labelgen product add --category 0 --name "Pearl strap" --price 12000 --id 15`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		c, err := app.ResolveCategory(a.Store, productCategory)
		if err != nil {
			return catalogFailure(cmd, "Cannot add product", err)
		}
		p := catalog.Product{ID: productID, Name: productName, Price: productPrice, CategoryID: c.ID}
		warnings, _ := catalog.SeparateWarningsAndErrors(catalog.CheckLabelFit(p))

		added, err := a.Store.AddProduct(p)
		if err != nil {
			return catalogFailure(cmd, "Cannot add product", err)
		}
		if outputFormat == "json" {
			return printJSON(cmd, api.FromProduct(added))
		}
		details := productDetails(added)
		if len(warnings) > 0 {
			for _, w := range warnings {
				details = append(details, ui.Detail{Key: "Warning", Value: catalog.GetShortErrorMessage(w)})
			}
			printer(cmd).PrintWarning("Product added with warnings", details...)
			return nil
		}
		printer(cmd).PrintSuccess("Product added", details...)
		return nil
	},
}

var productUpdateCmd = &cobra.Command{
	Use:   "update <category> <id>",
	Short: "Change a product",
	Example: `  labelgen product update "Phone straps" 3 --price 13000
  labelgen product update 0 3 --move-to "Ribbon keyrings"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		p, err := lookupProduct(a, args[0], args[1])
		if err != nil {
			return catalogFailure(cmd, "Cannot update product", err)
		}

		var u catalog.ProductUpdate
		if cmd.Flags().Changed("name") {
			u.Name = &productName
		}
		if cmd.Flags().Changed("price") {
			u.Price = &productPrice
		}
		if cmd.Flags().Changed("new-id") {
			u.ID = &productID
		}
		if moveToCategory != "" {
			c, err := app.ResolveCategory(a.Store, moveToCategory)
			if err != nil {
				return catalogFailure(cmd, "Cannot update product", err)
			}
			u.CategoryID = &c.ID
		}
		if u.IsEmpty() {
			return catalogFailure(cmd, "Nothing to update",
				catalog.NewValidationError("flags", "give at least one of --name, --price, --move-to, --new-id"))
		}

		updated, err := a.Store.UpdateProduct(p.CategoryID, p.ID, u)
		if err != nil {
			return catalogFailure(cmd, "Cannot update product", err)
		}
		if outputFormat == "json" {
			return printJSON(cmd, api.FromProduct(updated))
		}
		details := productDetails(updated)
		if updated.Code() != p.Code() {
			details = append(details, ui.Detail{Key: "Old code", Value: p.Code()})
		}
		printer(cmd).PrintSuccess("Product updated", details...)
		return nil
	},
}

var productDeleteCmd = &cobra.Command{
	Use:   "delete <category> <id>",
	Short: "Delete a product",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		p, err := lookupProduct(a, args[0], args[1])
		if err != nil {
			return catalogFailure(cmd, "Cannot delete product", err)
		}
		if !confirmDestructive(cmd, a, assumeYes, "Delete "+p.Name,
			[]string{fmt.Sprintf("%s is removed from the workbook", p.Code()), "'labelgen workbook undo' restores it"}) {
			return nil
		}
		if err := a.Store.DeleteProduct(p.CategoryID, p.ID); err != nil {
			return catalogFailure(cmd, "Cannot delete product", err)
		}
		printer(cmd).PrintSuccess("Product deleted", productDetails(p)...)
		return nil
	},
}

func productDetails(p catalog.Product) []ui.Detail {
	return []ui.Detail{
		{Key: "Code", Value: p.Code()},
		{Key: "Name", Value: p.Name},
		{Key: "Category", Value: p.CategoryName},
		{Key: "Price", Value: p.DisplayPrice()},
	}
}
