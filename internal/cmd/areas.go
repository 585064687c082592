package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/fishbot/internal/catalog"
	apperrors "github.com/GriffinCanCode/fishbot/internal/errors"
	"github.com/GriffinCanCode/fishbot/internal/templates"
)

var areasCmd = &cobra.Command{
	Use:   "areas",
	Short: "List fishing areas",
	Long: `List fishing areas. Each area selects the float templates in the assets
directory whose file names start with one of its prefixes.`,
	Args: cobra.NoArgs,
	RunE: runAreasList,
}

var areasAddCmd = &cobra.Command{
	Use:   "add <name> [prefix,prefix...]",
	Short: "Add a fishing area",
	Long: `Add a fishing area. Without prefixes the name is used, lower-cased with
spaces removed ("Deep Sea" matches deepsea*.png).`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runAreasAdd,
}

var areasRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a fishing area",
	Args:  cobra.ExactArgs(1),
	RunE:  runAreasRemove,
}

var areasSelectCmd = &cobra.Command{
	Use:   "select <id|name>",
	Short: "Choose the area to fish in",
	Args:  cobra.ExactArgs(1),
	RunE:  runAreasSelect,
}

func init() {
	areasCmd.AddCommand(areasAddCmd, areasRemoveCmd, areasSelectCmd)
	rootCmd.AddCommand(areasCmd)
}

func runAreasList(cmd *cobra.Command, args []string) error {
	cat, p := loadStores()
	printAreas(cmd.OutOrStdout(), cat.Entries(), p.SelectedArea(), cfg.AssetsDir)
	return nil
}

func printAreas(w io.Writer, entries []catalog.Entry, selected, assets string) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No areas yet. Add one with 'fishbot areas add <name>'.")
		return
	}
	if selected == "" {
		selected = entries[0].ID
	}
	for _, e := range entries {
		mark := " "
		if e.ID == selected {
			mark = "*"
		}
		n := len(templates.Load(assets, e.Pattern))
		fmt.Fprintf(w, "%s %3s  %-20s %-30s %d templates\n", mark, e.ID, e.Name, e.Pattern.String(), n)
	}
}

func runAreasAdd(cmd *cobra.Command, args []string) error {
	cat, _ := loadStores()
	raw := ""
	if len(args) == 2 {
		raw = args[1]
	}
	id, err := cat.Add(args[0], raw)
	if err != nil {
		return err
	}
	if err := cat.Save(); err != nil {
		return err
	}
	a, _ := cat.Get(id)
	fmt.Fprintf(cmd.OutOrStdout(), "Added area %s: %s (%s)\n", id, a.Name, a.Pattern.String())
	return nil
}

func runAreasRemove(cmd *cobra.Command, args []string) error {
	cat, p := loadStores()
	id := strings.TrimSpace(args[0])
	if err := cat.Remove(id); err != nil {
		if apperrors.IsCode(err, apperrors.ConfigInvalid) {
			return fmt.Errorf("%w (see 'fishbot areas')", err)
		}
		return err
	}
	if err := cat.Save(); err != nil {
		return err
	}
	if p.SelectedArea() == id {
		if err := p.SetSelectedArea(""); err != nil {
			return err
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed area %s\n", id)
	return nil
}

func runAreasSelect(cmd *cobra.Command, args []string) error {
	cat, p := loadStores()
	id, a, ok := cat.Lookup(strings.TrimSpace(args[0]))
	if !ok {
		return fmt.Errorf("unknown area %q", args[0])
	}
	if err := p.SetSelectedArea(id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Selected area %s: %s\n", id, a.Name)
	return nil
}
