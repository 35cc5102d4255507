package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/san-kum/tmx/internal/config"
	"github.com/san-kum/tmx/internal/export"
	"github.com/san-kum/tmx/internal/grounding"
	"github.com/san-kum/tmx/internal/metamodel"
	"github.com/san-kum/tmx/internal/report"
	"github.com/san-kum/tmx/internal/sources/bilayer"
	"github.com/san-kum/tmx/internal/sources/reactionnet"
	"github.com/san-kum/tmx/internal/sources/stockflow"
	"github.com/san-kum/tmx/internal/storage"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	dataDir       string
	source        string
	target        string
	outPath       string
	groundingPath string
	configFile    string
	saveArtifacts bool
	quiet         bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tmx",
		Short: "mechanistic model converter",
		Long: "tmx imports reaction networks, bilayer diagrams and stock/flow models\n" +
			"into a canonical template model and exports Petri-net or\n" +
			"stock-and-flow payloads.",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "artifact directory")
	rootCmd.PersistentFlags().StringVar(&groundingPath, "grounding", "", "curated grounding tables (yaml)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")

	convertCmd := &cobra.Command{
		Use:   "convert [file]",
		Short: "convert a source document to a target payload",
		Args:  cobra.ExactArgs(1),
		RunE:  convertModel,
	}
	convertCmd.Flags().StringVar(&source, "source", config.DefaultSource, "source format (reactionnet|bilayer|stockflow)")
	convertCmd.Flags().StringVar(&target, "target", config.DefaultTarget, "target format (classic|petrinet|stockflow)")
	convertCmd.Flags().StringVar(&outPath, "out", "", "output file (default stdout)")
	convertCmd.Flags().BoolVar(&saveArtifacts, "save", false, "save conversion artifacts")
	convertCmd.Flags().BoolVar(&quiet, "quiet", false, "suppress diagnostics")

	summaryCmd := &cobra.Command{
		Use:   "summary [file]",
		Short: "import a source document and print a model summary",
		Args:  cobra.ExactArgs(1),
		RunE:  summarizeModel,
	}
	summaryCmd.Flags().StringVar(&source, "source", config.DefaultSource, "source format")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved conversions",
		RunE:  listConversions,
	}

	showCmd := &cobra.Command{
		Use:   "show [conversion_id]",
		Short: "print a saved payload",
		Args:  cobra.ExactArgs(1),
		RunE:  showConversion,
	}

	diagnosticsCmd := &cobra.Command{
		Use:   "diagnostics [conversion_id]",
		Short: "print a saved conversion's diagnostics",
		Args:  cobra.ExactArgs(1),
		RunE:  showDiagnostics,
	}

	formatsCmd := &cobra.Command{
		Use:   "formats",
		Short: "list supported formats",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("sources:")
			for _, s := range config.Sources {
				fmt.Printf("  %s\n", s)
			}
			fmt.Println("targets:")
			for _, t := range config.Targets {
				fmt.Printf("  %s\n", t)
			}
		},
	}

	rootCmd.AddCommand(convertCmd, summaryCmd, listCmd, showCmd, diagnosticsCmd, formatsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// applyConfig fills in settings from the config file for flags the user
// did not set explicitly.
func applyConfig(cmd *cobra.Command) error {
	if configFile == "" {
		return nil
	}
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if !cmd.Flags().Changed("source") {
		source = cfg.Source
	}
	if cmd.Flags().Lookup("target") != nil && !cmd.Flags().Changed("target") {
		target = cfg.Target
	}
	if !cmd.Root().PersistentFlags().Changed("data") {
		dataDir = cfg.DataDir
	}
	if !cmd.Root().PersistentFlags().Changed("grounding") {
		groundingPath = cfg.GroundingPath
	}
	if cmd.Flags().Lookup("save") != nil && !cmd.Flags().Changed("save") {
		saveArtifacts = cfg.SaveArtifacts
	}
	return nil
}

func loadTables() (*grounding.Tables, error) {
	if groundingPath == "" {
		return grounding.Default(), nil
	}
	return grounding.Load(groundingPath)
}

// importModel reads a source document and builds the template model.
func importModel(path string) (*metamodel.TemplateModel, metamodel.Diagnostics, error) {
	tables, err := loadTables()
	if err != nil {
		return nil, nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	switch source {
	case "reactionnet":
		var doc reactionnet.Document
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, nil, fmt.Errorf("parse %s: %w", path, err)
		}
		return reactionnet.Import(doc, tables)
	case "bilayer":
		var doc bilayer.Document
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, nil, fmt.Errorf("parse %s: %w", path, err)
		}
		return bilayer.Import(doc, tables)
	case "stockflow":
		var doc stockflow.Document
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, nil, fmt.Errorf("parse %s: %w", path, err)
		}
		return stockflow.Import(doc, tables)
	default:
		return nil, nil, fmt.Errorf("unknown source format %q", source)
	}
}

func exportModel(model *metamodel.TemplateModel) (any, error) {
	switch target {
	case "classic":
		return export.Classic(model), nil
	case "petrinet":
		return export.PetriNet(model), nil
	case "stockflow":
		return export.StockFlow(model), nil
	default:
		return nil, fmt.Errorf("unknown target format %q", target)
	}
}

func convertModel(cmd *cobra.Command, args []string) error {
	if err := applyConfig(cmd); err != nil {
		return err
	}

	model, diags, err := importModel(args[0])
	if err != nil {
		return err
	}
	payload, err := exportModel(model)
	if err != nil {
		return err
	}

	if !quiet {
		for _, d := range diags {
			fmt.Fprintln(os.Stderr, d.String())
		}
	}

	if saveArtifacts {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		id, err := st.Save(model, source, target, payload, diags)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "saved conversion %s\n", id)
	}

	if outPath != "" {
		return export.WriteJSON(outPath, payload)
	}
	return export.EncodeJSON(os.Stdout, payload)
}

func summarizeModel(cmd *cobra.Command, args []string) error {
	if err := applyConfig(cmd); err != nil {
		return err
	}

	model, diags, err := importModel(args[0])
	if err != nil {
		return err
	}
	fmt.Print(report.Summary(model, diags))
	return nil
}

func listConversions(cmd *cobra.Command, args []string) error {
	if err := applyConfig(cmd); err != nil {
		return err
	}

	st := storage.New(dataDir)
	conversions, err := st.List()
	if err != nil {
		return err
	}
	if len(conversions) == 0 {
		fmt.Println("no conversions found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODEL\tSOURCE\tTARGET\tTIME\tTEMPLATES\tDIAGS")
	for _, c := range conversions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%d\n",
			c.ID,
			c.Model,
			c.Source,
			c.Target,
			c.Timestamp.Format("2006-01-02 15:04:05"),
			c.Templates,
			c.Diagnostics,
		)
	}
	return w.Flush()
}

func showConversion(cmd *cobra.Command, args []string) error {
	if err := applyConfig(cmd); err != nil {
		return err
	}

	st := storage.New(dataDir)
	payload, err := st.LoadPayload(args[0])
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(payload)
	return err
}

func showDiagnostics(cmd *cobra.Command, args []string) error {
	if err := applyConfig(cmd); err != nil {
		return err
	}

	st := storage.New(dataDir)
	diags, err := st.LoadDiagnostics(args[0])
	if err != nil {
		return err
	}
	if len(diags) == 0 {
		fmt.Println("no diagnostics")
		return nil
	}
	for _, d := range diags {
		fmt.Println(d.String())
	}
	return nil
}
