package main

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"auction-explorer/internal/api/handlers"
	"auction-explorer/internal/chain"
	"auction-explorer/internal/config"
	"auction-explorer/internal/domain"
	"auction-explorer/internal/infrastructure/redis"
	ws "auction-explorer/internal/infrastructure/websocket"
	"auction-explorer/internal/services"
	"auction-explorer/pkg/logger"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	redisClient "github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/robfig/cron/v3"
)

func main() {
	log := logger.New()
	log.Info("Iniciando o serviço Auction Explorer")

	cfg, err := config.Load()
	if err != nil {
		log.Error("Falha ao carregar configuração", "error", err)
		os.Exit(1)
	}
	log.Info("Configuração carregada", "config", cfg.GetConfigString())

	// Initialize Redis
	rdb := redisClient.NewClient(&redisClient.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Error("Falha ao conectar ao Redis", "error", err)
		os.Exit(1)
	}
	log.Info("Conectado ao Redis", "address", cfg.Redis.Address)

	// Initialize the ledger client
	client, err := ethclient.Dial(cfg.Eth.RPCURL)
	if err != nil {
		log.Error("Falha ao conectar ao nó Ethereum", "rpc_url", cfg.Eth.RPCURL, "error", err)
		os.Exit(1)
	}
	defer client.Close()

	chainID := big.NewInt(cfg.Eth.ChainID)
	if cfg.Eth.ChainID == 0 {
		chainID, err = client.ChainID(ctx)
		if err != nil {
			log.Error("Falha ao consultar o chain id", "error", err)
			os.Exit(1)
		}
	}
	log.Info("Conectado ao nó Ethereum", "rpc_url", cfg.Eth.RPCURL, "chain_id", chainID.String())

	// Validate the contract interfaces once; the factories reuse them.
	if _, err := chain.ParseAuctionABI(); err != nil {
		log.Error("Falha ao interpretar a interface do contrato de leilão", "error", err)
		os.Exit(1)
	}

	// Contract handle factories
	newReader := func(address common.Address) (domain.AuctionReader, error) {
		return chain.NewAuctionContract(address, client)
	}
	newWriter := func(address common.Address, auth *bind.TransactOpts) (domain.AuctionWriter, error) {
		contract, err := chain.NewAuctionContract(address, client)
		if err != nil {
			return nil, err
		}
		return contract.WithSigner(auth), nil
	}

	// The registry is optional; without it explorer sessions are blocked
	// with a configuration error while detail sessions keep working.
	var registry domain.RegistryReader
	if normalized, ok := chain.NormalizeAddress(cfg.Eth.RegistryAddress); ok {
		registryContract, err := chain.NewRegistryContract(common.HexToAddress(normalized), client)
		if err != nil {
			log.Error("Falha ao preparar o contrato do registro", "error", err)
			os.Exit(1)
		}
		registry = registryContract
		log.Info("Registro de leilões configurado", "address", normalized)
	} else {
		log.Warn("Endereço do registro ausente ou inválido", "address", cfg.Eth.RegistryAddress)
	}

	// Redis based components
	summaryCache := redis.NewRedisSummaryCache(rdb, cfg.Explorer.SummaryCacheTTL)
	eventPublisher := redis.NewEventPublisher(rdb)
	eventSubscriber := redis.NewEventSubscriber(rdb, log)

	aggregator := services.NewRegistryAggregator(log, registry, summaryCache, newReader)

	connManager := ws.NewConnectionManager(log)

	manager := services.NewSessionManager(services.SessionManagerDeps{
		Log:        log,
		Notifier:   connManager,
		Events:     eventSubscriber,
		Aggregator: aggregator,
		NewReader:  newReader,
		NewWriter:  newWriter,
		NewWatcher: func() services.AuctionWatcher {
			watcher, err := services.NewEventWatcher(log, client, eventPublisher, cfg.Watcher.PollInterval)
			if err != nil {
				log.Fatal("Falha ao preparar o observador de eventos", "error", err)
			}
			return watcher
		},
		NewWallet: func() services.Wallet {
			return services.NewWalletSession(log, cfg.Eth.WalletKeyFile, chainID)
		},
	})

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()
	manager.Run(rootCtx)

	// Periodic registry re-sync for open explorer sessions
	refreshCron := cron.New(cron.WithSeconds())
	if _, err := refreshCron.AddFunc(fmt.Sprintf("@every %s", cfg.Explorer.RefreshInterval), func() {
		manager.RefreshAllExplorers(context.Background())
	}); err != nil {
		log.Error("Falha ao agendar a atualização do registro", "error", err)
		os.Exit(1)
	}
	refreshCron.Start()

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.RequestID())
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: `{"time":"${time_rfc3339}","id":"${id}","remote_ip":"${remote_ip}","host":"${host}","method":"${method}","uri":"${uri}","user_agent":"${user_agent}","status":${status},"error":"${error}","latency":${latency},"latency_human":"${latency_human}","bytes_in":${bytes_in},"bytes_out":${bytes_out}}` + "\n",
	}))
	e.Use(middleware.Recover())

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{
			echo.GET, echo.HEAD, echo.PUT, echo.PATCH,
			echo.POST, echo.DELETE, echo.OPTIONS,
		},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			echo.HeaderXRequestedWith,
			echo.HeaderAccessControlRequestMethod,
			echo.HeaderAccessControlRequestHeaders,
		},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// API routes
	sessionHandler := handlers.NewSessionHandler(manager, log)
	sessionHandler.Register(e.Group("/api/v1"))

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":    "ok",
			"service":   "auction-explorer",
			"timestamp": time.Now().Format(time.RFC3339),
			"port":      cfg.Server.Port,
			"version":   "1.0.0",
		})
	})

	// WebSocket endpoint
	wsHandler := ws.NewWebSocketHandler(manager, connManager, log)
	wsRouter := mux.NewRouter()
	wsRouter.HandleFunc("/ws/sessions/{sessionID}", wsHandler.HandleConnection)
	e.GET("/ws/sessions/:sessionID", echo.WrapHandler(wsRouter))

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info("Iniciando o servidor HTTP", "address", serverAddr)

	go func() {
		if err := e.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Falha ao iniciar o servidor", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Encerrando o serviço Auction Explorer...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	refreshCron.Stop()
	stop()
	manager.CloseAll()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("Servidor forçado a encerrar", "error", err)
	}

	log.Info("Serviço Auction Explorer finalizado")
}
