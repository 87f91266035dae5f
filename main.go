package main

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/nanxi-ai/smartcs/agent/agents/orchestrator"
	"github.com/nanxi-ai/smartcs/agent/llm"
	turnnode "github.com/nanxi-ai/smartcs/agent/nodes"
	statex "github.com/nanxi-ai/smartcs/agent/state"
	toolx "github.com/nanxi-ai/smartcs/agent/tool"
	vectorx "github.com/nanxi-ai/smartcs/agent/vector"
	configx "github.com/nanxi-ai/smartcs/pkg/config"
	logx "github.com/nanxi-ai/smartcs/pkg/logger"
	"github.com/nanxi-ai/smartcs/server"
)

type AppConfig struct {
	Addr            string `envconfig:"ADDR" default:":8000"`
	ServiceName     string `envconfig:"SERVICE_NAME" split_words:"true" default:"智能客服小助手"`
	CompanyName     string `envconfig:"COMPANY_NAME" split_words:"true" default:"示例科技有限公司"`
	VectorStorePath string `envconfig:"VECTOR_STORE_PATH" split_words:"true" default:"./data/vector_store"`
	SeedKnowledge   bool   `envconfig:"SEED_KNOWLEDGE" split_words:"true" default:"false"`
	SessionCapacity int    `envconfig:"SESSION_CAPACITY" split_words:"true" default:"100"`
}

func main() {
	logx.Init(*configx.MustNew[logx.Config]("LOG"))

	appCfg := configx.MustNew[AppConfig]("")

	llmCfg := configx.MustNew[llm.Config]("SILICONFLOW")
	client, err := llm.NewClient(*llmCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize llm client")
	}

	// Retrieval is optional: a missing or mismatched index pair degrades to
	// no-retrieval mode instead of failing startup.
	var retriever turnnode.Retriever
	index := vectorx.New(client)
	if ok, err := index.Load(appCfg.VectorStorePath); ok {
		log.Info().Int("documents", index.Count()).Msg("knowledge base loaded")
		retriever = index
	} else if appCfg.SeedKnowledge {
		log.Info().Err(err).Msg("no usable knowledge artifacts, seeding built-in documents")
		if err := seedKnowledgeBase(context.Background(), index, appCfg.VectorStorePath); err != nil {
			log.Fatal().Err(err).Msg("seed knowledge base")
		}
		retriever = index
	} else {
		log.Warn().Err(err).Str("path", appCfg.VectorStorePath).Msg("knowledge base unavailable, retrieval disabled")
	}

	var dataset toolx.Dataset
	pgCfg := configx.MustNew[toolx.PostgresConfig]("POSTGRES")
	if pgCfg.DSN != "" {
		pg, err := toolx.NewPostgresDataset(*pgCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("initialize postgres dataset")
		}
		defer pg.Close()
		dataset = pg
		log.Info().Msg("business dataset: postgres")
	} else {
		dataset = toolx.NewMemoryDataset()
		log.Info().Msg("business dataset: in-memory fixtures")
	}

	dispatcher, err := toolx.NewDispatcher(dataset)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize tool dispatcher")
	}

	store := statex.NewSessionStore(appCfg.SessionCapacity)

	orch, err := orchestrator.New(store, client, dispatcher, retriever, orchestrator.Config{
		ServiceName: appCfg.ServiceName,
		CompanyName: appCfg.CompanyName,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("initialize orchestrator")
	}

	handler := server.New(orch, store, retriever != nil)

	log.Info().Str("addr", appCfg.Addr).Msg("customer service api listening")
	if err := http.ListenAndServe(appCfg.Addr, handler.Router()); err != nil {
		log.Fatal().Err(err).Msg("http server stopped")
	}
}
