package main

import (
	"flag"
	"os"
	"strings"

	"go-rowdb/config"
	"go-rowdb/pkg/manager"
	"go-rowdb/pkg/table"
	"go-rowdb/util/logger"
)

var log = logger.For("rowdb")

func main() {
	configPath := flag.String("config", "", "path to a YAML, JSON or TOML config file")
	check := flag.Bool("check", false, "verify every index tree")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal(err)
	}
	if err := logger.SetLevel(cfg.Log.Level); err != nil {
		fatal(err)
	}

	opts := table.DefaultOptions
	opts.NodeCacheSize = cfg.Storage.NodeCacheSize

	m, err := manager.New(cfg.Storage.DataDir, &opts)
	if err != nil {
		fatal(err)
	}
	defer func() {
		if err := m.CloseAll(); err != nil {
			log.WithError(err).Error("error on closing tables")
		}
	}()

	names, err := m.LoadAll()
	if err != nil {
		log.WithError(err).Error("failed to load data dir")
	}
	log.Infof("%d tables in '%s'", len(names), m.Dir())

	for _, name := range names {
		t, _ := m.Open(name)
		inspect(t, *check)
	}
}

func inspect(t *table.Table, check bool) {
	entry := log.WithField("table", t.Name())

	cols := make([]string, 0)
	for _, c := range t.Columns() {
		cols = append(cols, c.String())
	}

	free := t.FreeSlots()
	entry.Infof("schema: %s", strings.Join(cols, ", "))
	entry.Infof("rows: %d (%d free of %d reclaimable), row size %d, %d rows per page",
		t.NumRows(), len(free), t.FreeCapacity(), t.Geometry().RowSize, t.Geometry().RowsPerPage)

	for _, c := range t.Columns() {
		if !c.Indexed {
			continue
		}
		ix, err := t.Index(c.Name)
		if err != nil {
			entry.WithError(err).Warnf("index on '%s' unavailable", c.Name)
			continue
		}
		entry.Infof("index on '%s': %d entries, degree %d", c.Name, ix.Len(), ix.Degree())
		if check {
			if err := ix.Check(); err != nil {
				entry.WithError(err).Errorf("index on '%s' is inconsistent", c.Name)
			}
		}
	}
}

func fatal(err error) {
	log.Error(err)
	os.Exit(1)
}
