//go:build cgo

package graph

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	kuzu "github.com/kuzudb/go-kuzu"

	"github.com/dusk-indust/architecturizr/internal/model"
)

// KuzuStore implements the Store interface using KuzuDB as the graph backend.
// It requires CGO because the go-kuzu driver wraps KuzuDB's C library.
type KuzuStore struct {
	db   *kuzu.Database
	conn *kuzu.Connection
}

// Compile-time check that KuzuStore satisfies Store.
var _ Store = (*KuzuStore)(nil)

// NewKuzuStore creates a KuzuStore backed by an in-memory KuzuDB instance.
func NewKuzuStore() (*KuzuStore, error) {
	return openKuzu(":memory:")
}

// NewKuzuFileStore creates a KuzuStore backed by a file-based KuzuDB at the
// given path, so a built model can be queried by later commands.
func NewKuzuFileStore(dbPath string) (*KuzuStore, error) {
	// KuzuDB creates the leaf itself; the parent must exist.
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("kuzu: create parent directory: %w", err)
	}
	return openKuzu(dbPath)
}

func openKuzu(path string) (*KuzuStore, error) {
	cfg := kuzu.DefaultSystemConfig()
	db, err := kuzu.OpenDatabase(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("kuzu: open database: %w", err)
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kuzu: open connection: %w", err)
	}
	return &KuzuStore{db: db, conn: conn}, nil
}

// Close releases the KuzuDB connection and database.
func (s *KuzuStore) Close() error {
	if s.conn != nil {
		s.conn.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
	return nil
}

// ---------- Schema setup ----------

// ddlStatements defines the Cypher DDL executed by InitSchema.
// Order matters: node tables must precede relationship tables.
var ddlStatements = []string{
	`CREATE NODE TABLE IF NOT EXISTS Element(
		key STRING,
		kind STRING,
		parent STRING,
		name STRING,
		description STRING,
		technology STRING,
		tags STRING,
		owner STRING,
		deprecated BOOLEAN,
		seq INT64,
		PRIMARY KEY(key)
	)`,
	`CREATE NODE TABLE IF NOT EXISTS Process(
		full_name STRING,
		name STRING,
		source STRING,
		steps INT64,
		seq INT64,
		PRIMARY KEY(full_name)
	)`,
	`CREATE REL TABLE IF NOT EXISTS CONTAINS(FROM Element TO Element)`,
	`CREATE REL TABLE IF NOT EXISTS USES(FROM Element TO Element, style STRING, description STRING, seq INT64)`,
	`CREATE REL TABLE IF NOT EXISTS INVOLVES(FROM Process TO Element)`,
}

// InitSchema creates all node and relationship tables if they do not exist.
func (s *KuzuStore) InitSchema(_ context.Context) error {
	for _, stmt := range ddlStatements {
		res, err := s.conn.Query(stmt)
		if err != nil {
			return fmt.Errorf("kuzu: init schema: %w", err)
		}
		res.Close()
	}
	return nil
}

// ---------- Write operations ----------

// AddElement inserts an Element node and, for contained elements, the
// CONTAINS edge from its parent.
func (s *KuzuStore) AddElement(ctx context.Context, node ElementNode) error {
	if node.Parent != "" {
		parent, err := s.GetElement(ctx, node.Parent)
		if err != nil {
			return err
		}
		if parent == nil {
			return fmt.Errorf("kuzu: parent %q of %q not found", node.Parent, node.Key)
		}
	}
	seq, err := s.countTable("Element")
	if err != nil {
		return err
	}
	err = s.exec(
		`CREATE (e:Element {
			key: $key,
			kind: $kind,
			parent: $parent,
			name: $name,
			description: $desc,
			technology: $tech,
			tags: $tags,
			owner: $owner,
			deprecated: $deprecated,
			seq: $seq
		})`,
		map[string]any{
			"key":        node.Key,
			"kind":       string(node.Kind),
			"parent":     node.Parent,
			"name":       node.Name,
			"desc":       node.Description,
			"tech":       node.Technology,
			"tags":       strings.Join(node.Tags, ","),
			"owner":      node.Owner,
			"deprecated": node.Deprecated,
			"seq":        int64(seq),
		},
	)
	if err != nil || node.Parent == "" {
		return err
	}
	return s.exec(
		`MATCH (p:Element {key: $parent}), (c:Element {key: $key})
		 CREATE (p)-[:CONTAINS]->(c)`,
		map[string]any{"parent": node.Parent, "key": node.Key},
	)
}

// AddRelationship inserts a USES edge between two existing elements.
func (s *KuzuStore) AddRelationship(ctx context.Context, edge UsesEdge) error {
	for _, k := range []string{edge.Source, edge.Destination} {
		e, err := s.GetElement(ctx, k)
		if err != nil {
			return err
		}
		if e == nil {
			return fmt.Errorf("kuzu: element %q not found", k)
		}
	}
	seq, err := s.countRel("USES")
	if err != nil {
		return err
	}
	return s.exec(
		`MATCH (a:Element {key: $src}), (b:Element {key: $dst})
		 CREATE (a)-[:USES {style: $style, description: $desc, seq: $seq}]->(b)`,
		map[string]any{
			"src":   edge.Source,
			"dst":   edge.Destination,
			"style": string(edge.Style),
			"desc":  edge.Description,
			"seq":   int64(seq),
		},
	)
}

// AddProcess inserts a Process node and an INVOLVES edge to each element it
// touches.
func (s *KuzuStore) AddProcess(_ context.Context, node ProcessNode) error {
	seq, err := s.countTable("Process")
	if err != nil {
		return err
	}
	err = s.exec(
		"CREATE (p:Process {full_name: $fn, name: $name, source: $src, steps: $steps, seq: $seq})",
		map[string]any{
			"fn":    node.FullName,
			"name":  node.Name,
			"src":   node.Source,
			"steps": int64(node.StepCount),
			"seq":   int64(seq),
		},
	)
	if err != nil {
		return err
	}
	for _, key := range node.Elements {
		err := s.exec(
			`MATCH (p:Process {full_name: $fn}), (e:Element {key: $key})
			 CREATE (p)-[:INVOLVES]->(e)`,
			map[string]any{"fn": node.FullName, "key": key},
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// ---------- Read operations ----------

const elementColumns = "e.key, e.kind, e.parent, e.name, e.description, e.technology, e.tags, e.owner, e.deprecated, e.seq"

// GetElement retrieves a single Element node by key, or returns nil if not
// found.
func (s *KuzuStore) GetElement(_ context.Context, key string) (*ElementNode, error) {
	rows, err := s.query(
		"MATCH (e:Element {key: $key}) RETURN "+elementColumns,
		map[string]any{"key": key},
	)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rowToElement(rows[0]), nil
}

// GetChildren returns the elements key CONTAINS, in catalogue order.
func (s *KuzuStore) GetChildren(_ context.Context, key string) ([]ElementNode, error) {
	rows, err := s.query(
		"MATCH (p:Element {key: $key})-[:CONTAINS]->(e:Element) RETURN "+elementColumns+" ORDER BY e.seq",
		map[string]any{"key": key},
	)
	if err != nil {
		return nil, err
	}
	return rowsToElements(rows), nil
}

// QueryElements returns elements whose key or name contains the query
// string, ignoring case. A limit <= 0 returns all matches.
func (s *KuzuStore) QueryElements(_ context.Context, queryStr string, limit int) ([]ElementNode, error) {
	cypher := `MATCH (e:Element)
		WHERE lower(e.name) CONTAINS lower($q) OR lower(e.key) CONTAINS lower($q)
		RETURN ` + elementColumns + ` ORDER BY e.seq`
	params := map[string]any{"q": queryStr}
	if limit > 0 {
		cypher += " LIMIT $lim"
		params["lim"] = int64(limit)
	}
	rows, err := s.query(cypher, params)
	if err != nil {
		return nil, err
	}
	return rowsToElements(rows), nil
}

// GetRelationships returns the USES edges touching key in the given
// direction.
func (s *KuzuStore) GetRelationships(_ context.Context, key string, dir Direction) ([]UsesEdge, error) {
	var cypher string
	switch dir {
	case DirectionDownstream:
		cypher = "MATCH (a:Element {key: $key})-[r:USES]->(b:Element)"
	case DirectionUpstream:
		cypher = "MATCH (a:Element)-[r:USES]->(b:Element {key: $key})"
	case DirectionBoth, "":
		cypher = "MATCH (a:Element)-[r:USES]->(b:Element) WHERE a.key = $key OR b.key = $key"
	default:
		return nil, fmt.Errorf("kuzu: unknown direction: %s", dir)
	}
	rows, err := s.query(cypher+" RETURN a.key, b.key, r.style, r.description, r.seq ORDER BY r.seq", map[string]any{"key": key})
	if err != nil {
		return nil, err
	}
	return rowsToEdges(rows), nil
}

// GetAllElements returns every Element node in catalogue order.
func (s *KuzuStore) GetAllElements(_ context.Context) ([]ElementNode, error) {
	rows, err := s.query("MATCH (e:Element) RETURN "+elementColumns+" ORDER BY e.seq", nil)
	if err != nil {
		return nil, err
	}
	return rowsToElements(rows), nil
}

// GetAllRelationships returns every USES edge in insertion order.
func (s *KuzuStore) GetAllRelationships(_ context.Context) ([]UsesEdge, error) {
	rows, err := s.query(
		"MATCH (a:Element)-[r:USES]->(b:Element) RETURN a.key, b.key, r.style, r.description, r.seq ORDER BY r.seq",
		nil,
	)
	if err != nil {
		return nil, err
	}
	return rowsToEdges(rows), nil
}

// GetProcesses returns all Process nodes with the elements they involve.
func (s *KuzuStore) GetProcesses(_ context.Context) ([]ProcessNode, error) {
	rows, err := s.query(
		"MATCH (p:Process) RETURN p.full_name, p.name, p.source, p.steps, p.seq ORDER BY p.seq",
		nil,
	)
	if err != nil {
		return nil, err
	}
	out := make([]ProcessNode, 0, len(rows))
	for _, r := range rows {
		p := ProcessNode{
			FullName:  toString(r[0]),
			Name:      toString(r[1]),
			Source:    toString(r[2]),
			StepCount: toInt(r[3]),
			Seq:       toInt(r[4]),
		}
		memberRows, err := s.query(
			"MATCH (p:Process {full_name: $fn})-[:INVOLVES]->(e:Element) RETURN e.key, e.seq ORDER BY e.seq",
			map[string]any{"fn": p.FullName},
		)
		if err != nil {
			return nil, err
		}
		for _, mr := range memberRows {
			p.Elements = append(p.Elements, toString(mr[0]))
		}
		out = append(out, p)
	}
	return out, nil
}

// ---------- Graph traversal ----------

// GetDependencies performs a BFS over USES edges starting from key. It
// returns one DependencyChain per reachable element.
func (s *KuzuStore) GetDependencies(ctx context.Context, key string, dir Direction, maxDepth int) ([]DependencyChain, error) {
	if maxDepth <= 0 {
		return nil, nil
	}

	// BFS state.
	type bfsEntry struct {
		path  []string
		depth int
	}
	visited := map[string]bool{key: true}
	queue := []bfsEntry{{path: []string{key}, depth: 0}}
	var chains []DependencyChain

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth >= maxDepth {
			continue
		}
		tip := cur.path[len(cur.path)-1]
		neighbors, err := s.neighbors(ctx, tip, dir)
		if err != nil {
			return nil, err
		}
		for _, nb := range neighbors {
			if visited[nb] {
				continue
			}
			visited[nb] = true
			newPath := make([]string, len(cur.path)+1)
			copy(newPath, cur.path)
			newPath[len(cur.path)] = nb
			chains = append(chains, DependencyChain{
				Nodes: newPath,
				Depth: cur.depth + 1,
			})
			queue = append(queue, bfsEntry{path: newPath, depth: cur.depth + 1})
		}
	}
	return chains, nil
}

// neighbors returns the keys one USES hop away from key.
func (s *KuzuStore) neighbors(ctx context.Context, key string, dir Direction) ([]string, error) {
	edges, err := s.GetRelationships(ctx, key, dir)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(edges))
	for _, e := range edges {
		if e.Source == key {
			out = append(out, e.Destination)
		} else {
			out = append(out, e.Source)
		}
	}
	return out, nil
}

// ---------- Stats ----------

// Stats returns element counts per kind, the USES edge count and the process
// count.
func (s *KuzuStore) Stats(_ context.Context) (*GraphStats, error) {
	rows, err := s.query("MATCH (e:Element) RETURN e.kind, count(e)", nil)
	if err != nil {
		return nil, err
	}
	stats := &GraphStats{}
	for _, r := range rows {
		stats.count(model.ElementKind(toString(r[0])), toInt(r[1]))
	}
	if stats.RelationshipCount, err = s.countRel("USES"); err != nil {
		return nil, err
	}
	if stats.ProcessCount, err = s.countTable("Process"); err != nil {
		return nil, err
	}
	return stats, nil
}

// ---------- Internal helpers ----------

// exec runs a parameterized Cypher statement that produces no result rows.
func (s *KuzuStore) exec(cypher string, params map[string]any) error {
	stmt, err := s.conn.Prepare(cypher)
	if err != nil {
		return fmt.Errorf("kuzu: prepare: %w", err)
	}
	defer stmt.Close()

	res, err := s.conn.Execute(stmt, params)
	if err != nil {
		return fmt.Errorf("kuzu: execute: %w", err)
	}
	res.Close()
	return nil
}

// query runs a parameterized Cypher statement and collects all result rows.
// Each row is a []any slice with values in column order.
func (s *KuzuStore) query(cypher string, params map[string]any) ([][]any, error) {
	var res *kuzu.QueryResult
	var err error

	if len(params) == 0 {
		res, err = s.conn.Query(cypher)
	} else {
		var stmt *kuzu.PreparedStatement
		stmt, err = s.conn.Prepare(cypher)
		if err != nil {
			return nil, fmt.Errorf("kuzu: prepare: %w", err)
		}
		defer stmt.Close()
		res, err = s.conn.Execute(stmt, params)
	}
	if err != nil {
		return nil, fmt.Errorf("kuzu: query: %w", err)
	}
	defer res.Close()

	var rows [][]any
	for res.HasNext() {
		tuple, err := res.Next()
		if err != nil {
			return nil, fmt.Errorf("kuzu: next: %w", err)
		}
		vals, err := tuple.GetAsSlice()
		if err != nil {
			return nil, fmt.Errorf("kuzu: row values: %w", err)
		}
		rows = append(rows, vals)
	}
	return rows, nil
}

// countTable returns the number of rows in a node table.
func (s *KuzuStore) countTable(table string) (int, error) {
	// Table name is a fixed internal constant, not user input.
	return s.count(fmt.Sprintf("MATCH (n:%s) RETURN count(n)", table))
}

// countRel returns the number of edges in a relationship table.
func (s *KuzuStore) countRel(table string) (int, error) {
	return s.count(fmt.Sprintf("MATCH ()-[r:%s]->() RETURN count(r)", table))
}

func (s *KuzuStore) count(cypher string) (int, error) {
	rows, err := s.query(cypher, nil)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return 0, nil
	}
	return toInt(rows[0][0]), nil
}

// rowToElement converts a result row in elementColumns order.
func rowToElement(r []any) *ElementNode {
	return &ElementNode{
		Key:         toString(r[0]),
		Kind:        model.ElementKind(toString(r[1])),
		Parent:      toString(r[2]),
		Name:        toString(r[3]),
		Description: toString(r[4]),
		Technology:  toString(r[5]),
		Tags:        model.SplitTags(toString(r[6])),
		Owner:       toString(r[7]),
		Deprecated:  toBool(r[8]),
		Seq:         toInt(r[9]),
	}
}

func rowsToElements(rows [][]any) []ElementNode {
	out := make([]ElementNode, 0, len(rows))
	for _, r := range rows {
		out = append(out, *rowToElement(r))
	}
	return out
}

// rowsToEdges converts rows starting with (source, destination, style,
// description).
func rowsToEdges(rows [][]any) []UsesEdge {
	out := make([]UsesEdge, 0, len(rows))
	for _, r := range rows {
		out = append(out, UsesEdge{
			Source:      toString(r[0]),
			Destination: toString(r[1]),
			Style:       model.Style(toString(r[2])),
			Description: toString(r[3]),
		})
	}
	return out
}

// ---------- Type coercion helpers ----------
// KuzuDB returns typed Go values (int64, float64, bool, string).
// These helpers safely coerce any -> concrete type.

func toString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	}
	return fmt.Sprintf("%v", v)
}

func toInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case int32:
		return int(n)
	case uint64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

func toBool(v any) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return false
}
