package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/chrisroyse/docprov/internal/collaborators/filearchive"
	"github.com/chrisroyse/docprov/internal/common"
	"github.com/chrisroyse/docprov/internal/graph"
	"github.com/chrisroyse/docprov/internal/models"
	"github.com/chrisroyse/docprov/internal/storage/sqlite"
)

var configPath = flag.String("config", "", "Configuration file path")

func main() {
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	config, err := common.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := common.SetupLogger(config)
	defer common.Stop()
	common.PrintBanner(config, logger)

	store, err := sqlite.Open(logger, &config.Storage, config.Environment)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open storage")
	}
	defer store.Close()

	ctx := context.Background()
	command, rest := args[0], args[1:]

	var result interface{}
	var cmdErr error

	switch command {
	case "verify":
		result, cmdErr = runVerify(ctx, store)
	case "build-graph":
		result, cmdErr = runBuildGraph(ctx, store, config, rest)
	case "list-nodes":
		result, cmdErr = runListNodes(ctx, store, rest)
	case "find-paths":
		result, cmdErr = runFindPaths(ctx, store, config, rest)
	case "stats":
		result, cmdErr = runStats(ctx, store)
	case "delete-document":
		cmdErr = runDeleteDocument(ctx, store, config, rest)
		result = map[string]string{"status": "deleted"}
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	emit(result, cmdErr)
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: docprov-cli <command> [args]")
	fmt.Fprintln(os.Stderr, "commands: verify, build-graph [-mode exact|fuzzy] [-rebuild] [-hint <tag>], list-nodes [-type <entity_type>] [-name <substr>], find-paths [-hops N] <source_node_id> <target_node_id>, stats, delete-document <document_id>")
}

func emit(result interface{}, err error) {
	var payload interface{}
	if err != nil {
		payload = common.NewErrorEnvelope(err)
	} else {
		payload = common.NewEnvelope(result)
	}
	data, marshalErr := json.MarshalIndent(payload, "", "  ")
	if marshalErr != nil {
		fmt.Fprintf(os.Stderr, "failed to marshal response: %v\n", marshalErr)
		os.Exit(1)
	}
	fmt.Println(string(data))
	if err != nil {
		os.Exit(1)
	}
}

func runVerify(ctx context.Context, store *sqlite.Store) (interface{}, error) {
	return store.Verifier.VerifyDatabase(ctx)
}

func runBuildGraph(ctx context.Context, store *sqlite.Store, config *common.Config, args []string) (interface{}, error) {
	fs := flag.NewFlagSet("build-graph", flag.ExitOnError)
	mode := fs.String("mode", "fuzzy", "resolution mode: exact or fuzzy")
	rebuild := fs.Bool("rebuild", false, "purge and rebuild any existing graph")
	hint := fs.String("hint", "", "cluster-hint tag, e.g. employment, medical, litigation")
	fs.Parse(args)

	builder := graph.NewBuilder(
		store.Provenance, store.Entities, store.EntityMentions,
		store.Nodes, store.Edges, store.Links,
		config.Graph, common.GetLogger(),
	)
	cleanup := graph.NewCleanup(store.Links, store.Nodes, store.Edges, common.GetLogger())

	return builder.Build(ctx, cleanup, graph.BuildOptions{
		ResolutionMode: models.ResolutionMode(*mode),
		Rebuild:        *rebuild,
		ClusterHint:    *hint,
	})
}

func runListNodes(ctx context.Context, store *sqlite.Store, args []string) (interface{}, error) {
	fs := flag.NewFlagSet("list-nodes", flag.ExitOnError)
	entityType := fs.String("type", "", "filter by entity_type")
	name := fs.String("name", "", "filter by canonical_name substring")
	minDocs := fs.Int("min-documents", 0, "minimum document_count")
	includeEdges := fs.Bool("include-edges", false, "attach incident edges")
	limit := fs.Int("limit", 0, "max rows (0 = no limit)")
	fs.Parse(args)

	querier := graph.NewQuerier(store.Nodes, store.Edges, store.Links)
	opts := graph.ListNodesOptions{
		EntityName:       *name,
		MinDocumentCount: *minDocs,
		IncludeEdges:     *includeEdges,
		Limit:            *limit,
	}
	if *entityType != "" {
		et := models.EntityType(*entityType)
		opts.EntityType = &et
	}
	return querier.ListNodes(ctx, opts)
}

func runFindPaths(ctx context.Context, store *sqlite.Store, config *common.Config, args []string) (interface{}, error) {
	fs := flag.NewFlagSet("find-paths", flag.ExitOnError)
	hops := fs.Int("hops", config.Graph.DefaultMaxPathDepth, "max hop count")
	fs.Parse(args)
	remaining := fs.Args()
	if len(remaining) < 2 {
		return nil, common.Validation("find-paths requires <source_node_id> <target_node_id>")
	}

	finder := graph.NewPathFinder(store.Nodes, store.Edges)
	return finder.FindPaths(ctx, remaining[0], remaining[1], graph.FindPathsOptions{MaxHops: *hops})
}

func runStats(ctx context.Context, store *sqlite.Store) (interface{}, error) {
	querier := graph.NewQuerier(store.Nodes, store.Edges, store.Links)
	return querier.Stats(ctx)
}

func runDeleteDocument(ctx context.Context, store *sqlite.Store, config *common.Config, args []string) error {
	if len(args) < 1 {
		return common.Validation("delete-document requires <document_id>")
	}
	documentID := args[0]

	archiver := graph.NewArchiver(store.Links, store.Nodes, store.Edges, store.Entities,
		filearchive.New(config.Storage.FilesystemRoot+"/archives"))
	if err := archiver.ArchiveDocument(ctx, documentID, time.Now()); err != nil {
		return err
	}

	return store.Cascade.DeleteDocument(ctx, documentID)
}
