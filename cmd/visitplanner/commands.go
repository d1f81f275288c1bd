package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zatekoja/visitplanner/internal/domain/entities"
	"github.com/zatekoja/visitplanner/internal/planning"
)

const envPrefix = "PLANNER"

// newRootCmd builds the command tree. Each call gets its own viper instance
// so flags and environment are resolved per invocation.
func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("max-duration", entities.DefaultMaxDurationPerVisit)
	v.SetDefault("max-procedures", entities.DefaultMaxProceduresPerVisit)

	rootCmd := &cobra.Command{
		Use:           "visitplanner",
		Short:         "Group dental procedures into visits and advise on scheduling",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(groupCmd(v))
	rootCmd.AddCommand(adviseCmd())
	rootCmd.AddCommand(healingCmd())
	return rootCmd
}

func groupCmd(v *viper.Viper) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "group",
		Short: "Group a JSON array of procedures into visits",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var procedures []entities.Procedure
			if err := readJSON(cmd, file, &procedures); err != nil {
				return err
			}

			constraints := entities.Constraints{
				MaxDurationPerVisit:    v.GetInt("max-duration"),
				MaxProceduresPerVisit:  v.GetInt("max-procedures"),
				AllowMultipleQuadrants: !v.GetBool("single-quadrant"),
				PreferAdjacentTeeth:    true,
			}
			if constraints.MaxDurationPerVisit <= 0 || constraints.MaxProceduresPerVisit <= 0 {
				return fmt.Errorf("max-duration and max-procedures must be positive")
			}

			return writeJSON(cmd.OutOrStdout(), planning.GroupProceduresIntoVisits(procedures, constraints))
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "-", "procedures JSON file, - for stdin")
	cmd.Flags().Int("max-duration", entities.DefaultMaxDurationPerVisit, "maximum minutes per visit")
	cmd.Flags().Int("max-procedures", entities.DefaultMaxProceduresPerVisit, "maximum procedures per visit")
	cmd.Flags().Bool("single-quadrant", false, "keep each visit within one quadrant")
	_ = v.BindPFlag("max-duration", cmd.Flags().Lookup("max-duration"))
	_ = v.BindPFlag("max-procedures", cmd.Flags().Lookup("max-procedures"))
	_ = v.BindPFlag("single-quadrant", cmd.Flags().Lookup("single-quadrant"))
	return cmd
}

func adviseCmd() *cobra.Command {
	var file, visitID string
	cmd := &cobra.Command{
		Use:   "advise",
		Short: "Print scheduling advice for a JSON array of visits",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var visits []entities.VisitGroup
			if err := readJSON(cmd, file, &visits); err != nil {
				return err
			}

			advisor := planning.NewAdvisor(nil)
			if visitID != "" {
				for i := range visits {
					if visits[i].ID == visitID {
						return writeJSON(cmd.OutOrStdout(), advisor.Advise(&visits[i], visits))
					}
				}
				return fmt.Errorf("visit %s not found", visitID)
			}

			advice := make([]entities.VisitAdvice, 0, len(visits))
			for i := range visits {
				advice = append(advice, advisor.Advise(&visits[i], visits))
			}
			return writeJSON(cmd.OutOrStdout(), advice)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "-", "visits JSON file, - for stdin")
	cmd.Flags().StringVar(&visitID, "visit", "", "only advise on this visit id")
	return cmd
}

func healingCmd() *cobra.Command {
	var completed, next []string
	cmd := &cobra.Command{
		Use:   "healing",
		Short: "Print the healing days required between two sets of procedure codes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(completed) == 0 || len(next) == 0 {
				return fmt.Errorf("--completed and --next are required")
			}
			days := planning.HealingDays(planning.CategoriesFromCodes(completed), planning.CategoriesFromCodes(next))
			return writeJSON(cmd.OutOrStdout(), map[string]int{"days": days})
		},
	}

	cmd.Flags().StringSliceVar(&completed, "completed", nil, "procedure codes of the completed visit")
	cmd.Flags().StringSliceVar(&next, "next", nil, "procedure codes of the next visit")
	return cmd
}

func readJSON(cmd *cobra.Command, file string, dst any) error {
	var r io.Reader = cmd.InOrStdin()
	if file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return fmt.Errorf("open %s: %w", file, err)
		}
		defer f.Close()
		r = f
	}
	if err := json.NewDecoder(r).Decode(dst); err != nil {
		return fmt.Errorf("decode input: %w", err)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
