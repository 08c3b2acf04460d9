package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/wbrown/flakeql/executor"
	"github.com/wbrown/flakeql/flake"
	"github.com/wbrown/flakeql/index"
	"github.com/wbrown/flakeql/parser"
	"github.com/wbrown/flakeql/planner"
	"github.com/wbrown/flakeql/postprocess"
	"github.com/wbrown/flakeql/query"
	"github.com/wbrown/flakeql/sparql"
)

func main() {
	var dbPath string
	var interactive bool
	var help bool
	var explain bool
	var queryStr string
	var maxFuel int64

	flag.StringVar(&dbPath, "db", "", "database path")
	flag.BoolVar(&interactive, "i", false, "interactive mode")
	flag.BoolVar(&help, "h", false, "show help")
	flag.BoolVar(&explain, "explain", false, "print the realized plan before executing")
	flag.StringVar(&queryStr, "query", "", "run a single query and exit")
	flag.Int64Var(&maxFuel, "max-fuel", 0, "fuel ceiling for a query (0 = unlimited)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] [database_path]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "An analytical query engine over a flake-indexed triple store.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                          # Run demo with default database\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -i                       # Interactive mode\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -query 'SELECT ?n WHERE { ?s <person:name> ?n }'\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -query '{\"select\": [\"?n\"], \"where\": [[\"?s\", \"person:name\", \"?n\"]]}'\n", os.Args[0])
	}
	flag.Parse()

	if help {
		flag.Usage()
		os.Exit(0)
	}

	if dbPath == "" && flag.NArg() > 0 {
		dbPath = flag.Arg(0)
	}
	if dbPath == "" {
		dbPath = "flakeql.db"
	}

	store, err := index.OpenBadgerStore(dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer store.Close()

	registry := index.NewInternRegistry()
	snap := &index.Snapshot{
		Schema:   index.NewSchema(nil, nil),
		Store:    store,
		Novelty:  index.NewNovelty(),
		Resolver: registry,
		Policy:   index.AllowAll,
	}

	r := &runner{
		snap:    snap,
		funcs:   query.NewFunctionRegistry(),
		explain: explain,
		maxFuel: maxFuel,
	}

	switch {
	case queryStr != "":
		r.runSingle(queryStr)
	case interactive:
		r.runInteractive()
	default:
		if snap.TotalFlakes() == 0 {
			fmt.Println("Database is empty, loading demo data...")
			seedDemo(store, registry)
			r.runDemo()
		} else {
			fmt.Printf("Database contains %d flakes. Use -i for interactive mode or -query to run a query.\n", snap.TotalFlakes())
		}
	}
}

// runner bundles the snapshot and function registry every query
// evaluation needs, mirroring the teacher's closure-over-db style in
// cmd/datalog/main.go without introducing a new "engine" type.
type runner struct {
	snap    *index.Snapshot
	funcs   *query.FunctionRegistry
	explain bool
	maxFuel int64
}

// parseQuery accepts either native FQL (a JSON document) or a SPARQL 1.1
// query string, dispatching on the first non-whitespace byte: FQL's
// surface is always a JSON object, so a leading "{" selects parser.Parse
// and anything else is handed to sparql.Translate.
func parseQuery(src string) (*query.ParsedQuery, error) {
	trimmed := strings.TrimSpace(src)
	if strings.HasPrefix(trimmed, "{") {
		var doc interface{}
		if err := json.Unmarshal([]byte(trimmed), &doc); err != nil {
			return nil, fmt.Errorf("invalid FQL JSON: %w", err)
		}
		return parser.Parse(doc)
	}
	return sparql.Translate(trimmed)
}

// run plans, executes, and post-processes one already-parsed query,
// optionally printing the realized plan first.
func (r *runner) run(q *query.ParsedQuery) (*postprocess.Result, error) {
	p := planner.New(r.snap, planner.DefaultPlannerOptions())
	plan, err := p.Plan(q)
	if err != nil {
		return nil, fmt.Errorf("planning failed: %w", err)
	}
	if r.explain {
		ex := planner.ExplainPlan(plan, r.snap, q.Context)
		fmt.Fprint(os.Stderr, ex.String())
	}

	maxFuel := q.Opts.MaxFuel
	if maxFuel == 0 {
		maxFuel = r.maxFuel
	}

	exec := executor.New(r.snap, r.funcs, executor.DefaultExecutorOptions())
	solCh, errCh := exec.Execute(context.Background(), plan.Where, query.Solution{}, executor.NewFuel(maxFuel))

	var solutions []query.Solution
	for s := range solCh {
		solutions = append(solutions, s)
	}
	select {
	case err := <-errCh:
		if err != nil {
			return nil, fmt.Errorf("execution failed: %w", err)
		}
	default:
	}

	return postprocess.Run(r.snap, q, r.funcs, solutions)
}

func (r *runner) display(result *postprocess.Result) {
	if len(result.Documents) > 0 {
		enc, err := json.MarshalIndent(result.Documents, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to render documents: %v\n", err)
			return
		}
		fmt.Println(string(enc))
		return
	}
	fmt.Println(formatRows(result.Rows))
}

// runSingle executes one query from -query and exits.
func (r *runner) runSingle(src string) {
	q, err := parseQuery(src)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Parse error: %v\n", err)
		os.Exit(1)
	}

	result, err := r.run(q)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	r.display(result)
}

// runInteractive reads queries from stdin one line at a time; a line
// beginning with ":explain" toggles plan-printing, ":exit" quits, and
// anything else is handed to parseQuery, mirroring cmd/datalog's
// line-oriented REPL.
func (r *runner) runInteractive() {
	fmt.Println("=== FlakeQL Interactive Mode ===")
	fmt.Println("Commands:")
	fmt.Println("  :help     - Show help")
	fmt.Println("  :explain  - Toggle plan explain output")
	fmt.Println("  :exit     - Exit")
	fmt.Println("  <query>   - Run an FQL JSON document or a SPARQL query")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "":
			continue
		case line == ":exit":
			return
		case line == ":help":
			fmt.Println("Enter an FQL JSON document or a SPARQL query; multi-line input is not supported.")
		case line == ":explain":
			r.explain = !r.explain
			fmt.Printf("explain: %t\n", r.explain)
		default:
			q, err := parseQuery(line)
			if err != nil {
				fmt.Printf("Parse error: %v\n", err)
				continue
			}
			result, err := r.run(q)
			if err != nil {
				fmt.Printf("%v\n", err)
				continue
			}
			r.display(result)
		}
	}
}

// runDemo seeds a small dataset and runs a handful of queries across
// both the FQL and SPARQL surfaces, mirroring cmd/datalog's runDemo.
func (r *runner) runDemo() {
	fmt.Println(color.GreenString("=== FlakeQL Demo ==="))
	fmt.Println("\n=== Running Queries ===")

	demos := []string{
		`{"select": ["?name", "?age"], "where": [["?p", "person:name", "?name"], ["?p", "person:age", "?age"]]}`,
		`SELECT ?name WHERE { ?p <person:name> ?name . ?p <person:city> "New York" }`,
		`{"select": ["?friendName"], "where": [["?alice", "person:name", "Alice"], ["?alice", "person:friend", "?friend"], ["?friend", "person:name", "?friendName"]]}`,
		`SELECT ?name (COUNT(?friend) AS ?friends) WHERE { ?p <person:name> ?name . ?p <person:friend> ?friend } GROUP BY ?name`,
	}

	for _, src := range demos {
		fmt.Printf("\nQuery: %s\n", src)
		q, err := parseQuery(src)
		if err != nil {
			fmt.Printf("Parse error: %v\n", err)
			continue
		}
		result, err := r.run(q)
		if err != nil {
			fmt.Printf("%v\n", err)
			continue
		}
		r.display(result)
	}
}

// seedDemo inserts a small set of people and friendships, registering
// every minted subject/predicate with registry so later scans can
// resolve them back to their IRIs.
func seedDemo(store *index.BadgerStore, registry *index.InternRegistry) {
	namePred := flake.NewPredicate("person:name")
	agePred := flake.NewPredicate("person:age")
	cityPred := flake.NewPredicate("person:city")
	friendPred := flake.NewPredicate("person:friend")

	alice := flake.NewSubject("person:alice")
	bob := flake.NewSubject("person:bob")
	charlie := flake.NewSubject("person:charlie")

	flakes := []flake.Flake{
		flake.New(alice, namePred, "Alice", 1),
		flake.New(alice, agePred, int64(30), 1),
		flake.New(alice, cityPred, "New York", 1),
		flake.New(bob, namePred, "Bob", 1),
		flake.New(bob, agePred, int64(25), 1),
		flake.New(bob, cityPred, "Boston", 1),
		flake.New(charlie, namePred, "Charlie", 1),
		flake.New(charlie, agePred, int64(35), 1),
		flake.New(charlie, cityPred, "New York", 1),
		flake.New(alice, friendPred, bob, 1),
		flake.New(alice, friendPred, charlie, 1),
		flake.New(bob, friendPred, charlie, 1),
	}

	for _, s := range []flake.Subject{alice, bob, charlie} {
		registry.RegisterSubject(s)
	}
	for _, p := range []flake.Predicate{namePred, agePred, cityPred, friendPred} {
		registry.RegisterPredicate(p)
	}

	if err := store.Assert(flakes); err != nil {
		log.Fatalf("failed to seed demo data: %v", err)
	}
}
