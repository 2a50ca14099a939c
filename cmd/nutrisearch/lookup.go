package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/nutrisearch/internal/domain/search/request"
	chiTransport "github.com/kailas-cloud/nutrisearch/internal/transport/chi"
)

var (
	searchPage     int
	searchPageSize int
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Run one aggregated search and print the result as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context(), cfg, logger, false)
		if err != nil {
			return err
		}
		defer a.Close()

		pageSize := searchPageSize
		if pageSize == 0 {
			pageSize = cfg.Search.DefaultPageSize
		}
		req, err := request.New(args[0], searchPage, pageSize, cfg.Search.MaxPageSize)
		if err != nil {
			return err
		}

		res, err := a.search.SearchAll(cmd.Context(), &req)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), chiTransport.SearchResponse{Results: chiTransport.ResultJSON(&res)})
	},
}

var barcodeCmd = &cobra.Command{
	Use:   "barcode [upc]",
	Short: "Look up a UPC/EAN barcode across providers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context(), cfg, logger, false)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.search.SearchByBarcode(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), chiTransport.SearchResponse{Results: chiTransport.ResultJSON(&res)})
	},
}

var nutrientsCmd = &cobra.Command{
	Use:   "nutrients [description]",
	Short: "Resolve a food description to a nutrient profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context(), cfg, logger, false)
		if err != nil {
			return err
		}
		defer a.Close()

		if a.nutrients == nil {
			return fmt.Errorf("no nutrient parser configured (nutritionix or openai)")
		}
		p, err := a.nutrients.Profile(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), chiTransport.NutrientsResponse{Nutrients: chiTransport.NutrientsToJSON(p)})
	},
}

func init() {
	searchCmd.Flags().IntVar(&searchPage, "page", 0, "zero-based page")
	searchCmd.Flags().IntVar(&searchPageSize, "page-size", 0, "page size (default search.default_page_size)")
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
