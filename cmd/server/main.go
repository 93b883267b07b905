package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dgryski/go-farm"
	"github.com/sirupsen/logrus"
	cli "gopkg.in/urfave/cli.v2"

	"github.com/nivalisdb/nivalis/config"
	"github.com/nivalisdb/nivalis/kernel/schema"
	"github.com/nivalisdb/nivalis/kernel/store"
	"github.com/nivalisdb/nivalis/util/json"
)

const flagConfig = "config"

var log = logrus.New()

var app = &cli.App{
	Name:        "nivalis-indexer",
	Usage:       "nivalis-indexer [command]",
	Description: "Nivalis schema indexer.",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: flagConfig, Usage: "path to the TOML configuration"},
	},
	Commands: []*cli.Command{
		{
			Name:        "start",
			Usage:       "nivalis-indexer start",
			Description: "Index JSON documents from stdin, one per line.",
			Action:      runStart,
		},
		{
			Name:        "schema",
			Usage:       "nivalis-indexer schema",
			Description: "Print the readable view of the persisted schema.",
			Action:      runSchema,
		},
	},
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setup(ctx *cli.Context) (*config.Config, *store.ShardSet, error) {
	conf, err := config.Load(ctx.String(flagConfig))
	if err != nil {
		return nil, nil, err
	}
	if level, err := logrus.ParseLevel(conf.LogLevel); err == nil {
		log.SetLevel(level)
	}
	if err := os.MkdirAll(conf.DataDir, 0755); err != nil {
		return nil, nil, err
	}
	shards := make([]store.Shard, 0, conf.Shards)
	for i := 0; i < conf.Shards; i++ {
		sh, err := store.OpenBolt(&store.BoltConfig{
			Path: filepath.Join(conf.DataDir, fmt.Sprintf("shard-%04d.db", i)),
		})
		if err != nil {
			for _, open := range shards {
				open.Close()
			}
			return nil, nil, err
		}
		shards = append(shards, sh)
	}
	return conf, store.NewShardSet(shards...), nil
}

// foreignShards opens one bolt shard per foreign endpoint, reusing open
// handles so the resolver and the commit path share the same file lock.
type foreignShards struct {
	dir  string
	open map[string]store.Shard
}

func newForeignShards(dataDir string) *foreignShards {
	return &foreignShards{
		dir:  filepath.Join(dataDir, "foreign"),
		open: make(map[string]store.Shard),
	}
}

func (f *foreignShards) Get(endpoint string) (store.Shard, error) {
	if sh, ok := f.open[endpoint]; ok {
		return sh, nil
	}
	if err := os.MkdirAll(f.dir, 0755); err != nil {
		return nil, err
	}
	sh, err := store.OpenBolt(&store.BoltConfig{
		Path: filepath.Join(f.dir, endpointFile(endpoint)),
	})
	if err != nil {
		return nil, err
	}
	f.open[endpoint] = sh
	return sh, nil
}

func (f *foreignShards) Close() {
	for _, sh := range f.open {
		sh.Close()
	}
}

func endpointFile(endpoint string) string {
	out := []byte(endpoint)
	for i, c := range out {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '.', c == '-', c == '_':
		default:
			out[i] = '_'
		}
	}
	return string(out) + ".db"
}

func runStart(ctx *cli.Context) error {
	conf, shards, err := setup(ctx)
	if err != nil {
		return err
	}
	defer shards.Close()

	foreign := newForeignShards(conf.DataDir)
	defer foreign.Close()
	schemas, err := schema.NewSchemas(conf.SchemaCache, foreign.Get)
	if err != nil {
		return err
	}

	commitShard := shards.Get(0)
	sch, err := schema.Load(commitShard)
	if err != nil {
		return err
	}
	endpoint := sch.Endpoint()
	if endpoint != "" {
		// Thin redirect: the real schema lives behind the endpoint.
		if sch, err = schemas.Get(endpoint); err != nil {
			return err
		}
		if commitShard, err = foreign.Get(endpoint); err != nil {
			return err
		}
	}
	sch.SetSchemas(schemas)

	var runner schema.ScriptRunner = schema.DisabledRunner{}
	if conf.Scripting {
		runner = schema.GojaRunner{}
	}

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 1024*1024), 16*1024*1024)
	indexed := 0
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		obj, err := json.DecodeObject(line)
		if err != nil {
			log.WithError(err).Warn("skipping undecodable document")
			continue
		}
		res, err := sch.Index(obj, nil, shards, nil, runner)
		if err != nil {
			log.WithError(err).Error("document rejected")
			continue
		}
		raw, err := res.EncodeArtifact()
		if err != nil {
			return err
		}
		target := shards.Get(int(farm.Fingerprint64([]byte(res.IDTerm)) % uint64(shards.Len())))
		if err := target.PutDocument(res.IDTerm, raw); err != nil {
			return err
		}
		if err := schema.Commit(commitShard, sch); err != nil {
			return err
		}
		indexed++
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if endpoint != "" {
		// Later loads re-read the committed schema from the shard.
		schemas.Invalidate(endpoint)
	}
	log.WithField("documents", indexed).Info("indexing finished")
	return nil
}

func runSchema(ctx *cli.Context) error {
	conf, shards, err := setup(ctx)
	if err != nil {
		return err
	}
	defer shards.Close()

	sch, err := schema.Load(shards.Get(0))
	if err != nil {
		return err
	}
	if endpoint := sch.Endpoint(); endpoint != "" {
		foreign := newForeignShards(conf.DataDir)
		defer foreign.Close()
		schemas, err := schema.NewSchemas(conf.SchemaCache, foreign.Get)
		if err != nil {
			return err
		}
		if sch, err = schemas.Get(endpoint); err != nil {
			return err
		}
	}
	out, err := json.MarshalIndent(schema.Readable(sch.Origin()), "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
