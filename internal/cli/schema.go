package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Ramsey-B/fern/internal/handlers"
	"github.com/Ramsey-B/fern/pkg/forms"
)

// SchemaOptions holds options for the schema command.
type SchemaOptions struct {
	Output string
	Values []string
}

// NewSchemaCommand creates the schema command.
func NewSchemaCommand() *cobra.Command {
	opts := &SchemaOptions{}

	cmd := &cobra.Command{
		Use:   "schema [id]",
		Short: "List form schemas or print one resolved against the catalog",
		Example: `  # List the available forms
  fern schema

  # Print the visual builder with columns for the date table
  fern schema visual-builder --set visualType=lineChart --set categoryTable=DimDate -o yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema(cmd, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "json", "Output format (json|yaml)")
	cmd.Flags().StringArrayVar(&opts.Values, "set", nil, "Field value as name=value")

	_ = cmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"json", "yaml"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runSchema(cmd *cobra.Command, opts *SchemaOptions, args []string) error {
	cfg := GetConfig(cmd.Context())

	schemas, catalog, err := loadForms(cfg.FormsDir)
	if err != nil {
		return err
	}

	if len(args) == 0 {
		for _, id := range forms.IDs(schemas) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", id, schemas[id].Title)
		}
		return nil
	}

	schema, ok := schemas[args[0]]
	if !ok {
		return fmt.Errorf("form %s not found", args[0])
	}

	values, err := parseValues(opts.Values)
	if err != nil {
		return err
	}

	state := handlers.NewFormsHandler(schemas, catalog).Resolved(schema, values)
	return write(cmd.OutOrStdout(), opts.Output, state)
}

// parseValues reads name=value pairs. Values are decoded as YAML scalars so
// numbers and booleans keep their type.
func parseValues(pairs []string) (forms.Values, error) {
	values := forms.Values{}
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid value %q, expected name=value", pair)
		}

		var value any
		if err := yaml.Unmarshal([]byte(raw), &value); err != nil || value == nil {
			value = raw
		}
		values[name] = value
	}
	return values, nil
}

func write(w io.Writer, format string, v any) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	case "json":
		out, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(out))
		return err
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
