// Command typegraph is a CLI client for the type catalog HTTP API.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/typegraph-io/typegraph/internal/handlers"
)

var (
	serverFlag string
	byGUIDFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "typegraph",
	Short: "CLI client for the struct type catalog",
	Long: `CLI client for the struct type catalog.
Manages struct type definitions over the catalog HTTP API.`,
}

var applyCmd = &cobra.Command{
	Use:   "apply <file.json>",
	Short: "Create the definitions in a JSON bundle file",
	Long: `Create every struct definition in the given JSON file as one bundle.
The file holds {"structDefs": [...]}; definitions may reference each other
regardless of order.`,
	Args: cobra.ExactArgs(1),
	Run:  runApply,
}

var getCmd = &cobra.Command{
	Use:   "get <name|guid>",
	Short: "Fetch one struct definition",
	Args:  cobra.ExactArgs(1),
	Run:   runGet,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all struct definitions",
	Run:   runList,
}

var searchCmd = &cobra.Command{
	Use:   "search <substring>",
	Short: "List struct definitions whose name contains the given substring",
	Args:  cobra.ExactArgs(1),
	Run:   runSearch,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <name|guid>",
	Short: "Delete one struct definition",
	Args:  cobra.ExactArgs(1),
	Run:   runDelete,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&serverFlag, "server", "s", "http://localhost:8080", "Catalog server base URL")
	getCmd.Flags().BoolVar(&byGUIDFlag, "guid", false, "Look up by guid instead of name")
	deleteCmd.Flags().BoolVar(&byGUIDFlag, "guid", false, "Delete by guid instead of name")

	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(deleteCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Failed to execute command: %v", err)
	}
}

var httpClient = &http.Client{Timeout: 30 * time.Second}

func runApply(cmd *cobra.Command, args []string) {
	body, err := os.ReadFile(args[0])
	if err != nil {
		log.Fatalf("Failed to read bundle file: %v", err)
	}

	// Validate the file shape before sending it anywhere.
	var req handlers.CreateTypesRequest
	if err := json.Unmarshal(body, &req); err != nil {
		log.Fatalf("Invalid bundle file: %v", err)
	}
	if len(req.StructDefs) == 0 {
		log.Fatal("Bundle file holds no struct definitions")
	}

	resp, err := httpClient.Post(serverFlag+"/v1/types", "application/json", bytes.NewReader(body))
	if err != nil {
		log.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		log.Fatalf("Create failed: %s", readError(resp))
	}

	var created handlers.TypesResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		log.Fatalf("Failed to decode response: %v", err)
	}
	for _, def := range created.StructDefs {
		fmt.Printf("created %s (guid %s)\n", def.Name, def.GUID)
	}
}

func runGet(cmd *cobra.Command, args []string) {
	path := "/v1/types/name/"
	if byGUIDFlag {
		path = "/v1/types/guid/"
	}

	resp, err := httpClient.Get(serverFlag + path + url.PathEscape(args[0]))
	if err != nil {
		log.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Fatalf("Get failed: %s", readError(resp))
	}

	printIndented(resp.Body)
}

func runList(cmd *cobra.Command, args []string) {
	listTypes("")
}

func runSearch(cmd *cobra.Command, args []string) {
	listTypes(args[0])
}

func listTypes(contains string) {
	endpoint := serverFlag + "/v1/types"
	if contains != "" {
		endpoint += "?contains=" + url.QueryEscape(contains)
	}

	resp, err := httpClient.Get(endpoint)
	if err != nil {
		log.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Fatalf("List failed: %s", readError(resp))
	}

	var types handlers.TypesResponse
	if err := json.NewDecoder(resp.Body).Decode(&types); err != nil {
		log.Fatalf("Failed to decode response: %v", err)
	}
	for _, def := range types.StructDefs {
		fmt.Printf("%s\t%s\t%d attribute(s)\n", def.Name, def.GUID, len(def.AttributeDefs))
	}
}

func runDelete(cmd *cobra.Command, args []string) {
	path := "/v1/types/name/"
	if byGUIDFlag {
		path = "/v1/types/guid/"
	}

	req, err := http.NewRequest(http.MethodDelete, serverFlag+path+url.PathEscape(args[0]), nil)
	if err != nil {
		log.Fatalf("Failed to build request: %v", err)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		log.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		log.Fatalf("Delete failed: %s", readError(resp))
	}
	fmt.Printf("deleted %s\n", args[0])
}

func readError(resp *http.Response) string {
	var errResp handlers.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error != "" {
		return fmt.Sprintf("%s (HTTP %d)", errResp.Error, resp.StatusCode)
	}
	return fmt.Sprintf("HTTP %d", resp.StatusCode)
}

func printIndented(r io.Reader) {
	raw, err := io.ReadAll(r)
	if err != nil {
		log.Fatalf("Failed to read response: %v", err)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		fmt.Println(string(raw))
		return
	}
	fmt.Println(buf.String())
}
