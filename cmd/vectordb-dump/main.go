// Command vectordb-dump loads a persisted vector database file and
// prints a one-line summary for each record, for offline inspection.
package main

import (
	"flag"
	"fmt"

	"github.com/edirooss/vectordb-server/internal/engine/store"
	"github.com/edirooss/vectordb-server/pkg/fmtt"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	file := flag.String("f", "vector_database.db", "persistence file path")
	dim := flag.Int("d", 3, "configured vector dimension")
	verbose := flag.Bool("v", false, "print the full error chain on failure")
	flag.Parse()

	log := buildLogger()

	st, err := store.Load(*file, *dim, log)
	if err != nil {
		if *verbose {
			fmtt.PrintErrChain(err)
		}
		log.Fatal("load failed", zap.Error(err))
	}

	n := st.Size()
	fmt.Printf("loaded %d record(s), dimension %d, stale=%d\n", n, st.Dim(), st.Stale())
	for i := 0; i < n; i++ {
		v, err := st.Get(i)
		if err != nil {
			log.Fatal("read failed", zap.Int("index", i), zap.Error(err))
		}
		fmt.Printf("%d\t%s\t%v\n", i, v.UUID, v.Data)
	}
}

func buildLogger() *zap.Logger {
	logConfig := zap.NewDevelopmentConfig()
	logConfig.EncoderConfig.TimeKey = ""
	logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logConfig.DisableStacktrace = true
	logConfig.DisableCaller = true
	logConfig.Level.SetLevel(zap.DebugLevel)
	return zap.Must(logConfig.Build())
}
