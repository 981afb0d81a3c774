package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ignius299792458/rv-react/internal/demo"
	"github.com/ignius299792458/rv-react/internal/registry"
)

var componentsFormat string

var componentsCmd = &cobra.Command{
	Use:     "components",
	Aliases: []string{"list"},
	Short:   "List registered components",
	Long: `List the components available to the development server, with their
props and descriptions.`,
	RunE: runComponents,
}

func init() {
	rootCmd.AddCommand(componentsCmd)
	componentsCmd.Flags().StringVarP(&componentsFormat, "format", "f", "table", "Output format (table, json)")
}

func runComponents(cmd *cobra.Command, args []string) error {
	reg := registry.New()
	demo.Register(reg)

	defs := reg.All()

	switch componentsFormat {
	case "json":
		type componentInfo struct {
			Name        string   `json:"name"`
			Description string   `json:"description,omitempty"`
			Params      []string `json:"params,omitempty"`
		}
		infos := make([]componentInfo, 0, len(defs))
		for _, def := range defs {
			info := componentInfo{Name: def.Name, Description: def.Description}
			for _, param := range def.Params {
				info.Params = append(info.Params, fmt.Sprintf("%s %s", param.Name, param.Type))
			}
			infos = append(infos, info)
		}
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(infos)

	case "table":
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tPARAMS\tDESCRIPTION")
		for _, def := range defs {
			fmt.Fprintf(w, "%s\t%d\t%s\n", def.Name, len(def.Params), def.Description)
		}
		return w.Flush()

	default:
		return fmt.Errorf("unsupported format: %s (supported: table, json)", componentsFormat)
	}
}
