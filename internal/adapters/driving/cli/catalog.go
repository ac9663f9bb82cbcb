package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var companyCmd = &cobra.Command{
	Use:   "company",
	Short: "Manage companies",
}

var companyAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Add a company",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCompanyAdd,
}

var companyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List companies",
	Args:  cobra.NoArgs,
	RunE:  runCompanyList,
}

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Manage stored queries",
	Long: `Stored queries are evaluated for every active company by
'reportrag evaluate --all'.`,
}

var queryAddCmd = &cobra.Command{
	Use:   "add [name] [question]",
	Short: "Add a stored query",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runQueryAdd,
}

var queryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored queries",
	Args:  cobra.NoArgs,
	RunE:  runQueryList,
}

func init() {
	companyCmd.AddCommand(companyAddCmd)
	companyCmd.AddCommand(companyListCmd)
	rootCmd.AddCommand(companyCmd)

	queryCmd.AddCommand(queryAddCmd)
	queryCmd.AddCommand(queryListCmd)
	rootCmd.AddCommand(queryCmd)
}

func runCompanyAdd(cmd *cobra.Command, args []string) error {
	if catalogService == nil {
		return errors.New("catalog service not configured")
	}

	company, err := catalogService.AddCompany(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return fmt.Errorf("failed to add company: %w", err)
	}

	cmd.Printf("Company added: %s (%s)\n", company.Name, company.ID)
	return nil
}

func runCompanyList(cmd *cobra.Command, _ []string) error {
	if catalogService == nil {
		return errors.New("catalog service not configured")
	}

	companies, err := catalogService.ListCompanies(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list companies: %w", err)
	}

	if len(companies) == 0 {
		cmd.Println("No companies found. Add one with 'reportrag company add <name>'.")
		return nil
	}

	for i := range companies {
		c := &companies[i]
		cmd.Printf("  %s  %s", c.ID, c.Name)
		if !c.Active {
			cmd.Print(" (inactive)")
		}
		cmd.Println()
	}
	return nil
}

func runQueryAdd(cmd *cobra.Command, args []string) error {
	if catalogService == nil {
		return errors.New("catalog service not configured")
	}

	query, err := catalogService.AddQuery(cmd.Context(), args[0], strings.Join(args[1:], " "))
	if err != nil {
		return fmt.Errorf("failed to add query: %w", err)
	}

	cmd.Printf("Query added: %s (%s)\n", query.Name, query.ID)
	return nil
}

func runQueryList(cmd *cobra.Command, _ []string) error {
	if catalogService == nil {
		return errors.New("catalog service not configured")
	}

	queries, err := catalogService.ListQueries(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list queries: %w", err)
	}

	if len(queries) == 0 {
		cmd.Println("No stored queries.")
		return nil
	}

	for i := range queries {
		q := &queries[i]
		cmd.Printf("  %s  %s\n", q.ID, q.Name)
		cmd.Printf("    %s\n", q.Question)
	}
	return nil
}
