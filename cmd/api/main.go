// Package main (in api-subfolder) provides launch of the background-removal API
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appcfg "github.com/UnendingLoop/BgRemover/internal/config"
	"github.com/UnendingLoop/BgRemover/internal/idempotency"
	"github.com/UnendingLoop/BgRemover/internal/kafka"
	"github.com/UnendingLoop/BgRemover/internal/mwlogger"
	"github.com/UnendingLoop/BgRemover/internal/rembg"
	"github.com/UnendingLoop/BgRemover/internal/service"
	"github.com/UnendingLoop/BgRemover/internal/storage"
	"github.com/UnendingLoop/BgRemover/internal/transport"
	"github.com/redis/go-redis/v9"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/ginext"
	wbfkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/zlog"
)

// сколько ждем заголовки запроса от клиента
const readHeaderTimeout = 10 * time.Second

func main() {
	// инициализировать конфиг/ считать энвы
	rawConfig := config.New()
	rawConfig.EnableEnv("")
	if err := rawConfig.LoadEnvFiles("./.env"); err != nil {
		log.Printf("No .env loaded (%v), using process environment", err)
	}
	cfg, err := appcfg.Load(rawConfig)
	if err != nil {
		log.Fatalf("Invalid configuration:\n%v\nExiting app...", err)
	}

	// стартуем логгер
	zlog.InitConsole()
	if err := zlog.SetLevel(cfg.LogLevel); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	// готовим заранее слушатель прерываний - контекст для всего приложения
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// подключиться к хранилищу
	strg, err := storage.NewBlobStore(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to connect to storage: %v", err)
	}
	// клиент сервиса удаления фона
	remover := rembg.NewClient(cfg.Remover)

	opts := []service.Option{service.WithBoundingBoxRequired(cfg.BBoxRequired)}

	// кафка опциональна - без брокера события не отправляем
	var pub *wbfkafka.Producer
	if cfg.Kafka.Enabled() {
		if err := kafka.WaitKafkaReady(ctx, cfg.Kafka.Broker, 5*time.Second); err != nil {
			log.Fatalf("Kafka startup aborted: %v", err)
		}
		if err := kafka.InitKafkaTopics(ctx, cfg.Kafka.Broker, 10*time.Second, cfg.Kafka.Topic); err != nil {
			log.Fatalf("Kafka startup aborted: %v", err)
		}
		pub = wbfkafka.NewProducer([]string{cfg.Kafka.Broker}, cfg.Kafka.Topic)
		opts = append(opts, service.WithEventPublisher(kafka.NewEventPublisher(pub)))
	}

	// redis тоже опционален - без него Idempotency-Key игнорируется
	var rdb *redis.Client
	if cfg.Redis.Enabled() {
		rdb, err = idempotency.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		opts = append(opts, service.WithResultCache(idempotency.NewRedisCache(rdb, cfg.Redis.TTL)))
	}

	// создаем экземпляр сервиса
	var svc ImageAPIService = service.NewImageService(remover, strg, opts...)
	// cоздаем экземпляр хендлера HTTP
	handlers := transport.NewImageHandler(svc)
	// сетапим сервер
	engine := ginext.New(cfg.GinMode)

	engine.GET("/ping", handlers.SimplePinger)
	engine.POST("/api/process-image", handlers.Process) // удаление фона + загрузка результата

	srv := newServer(cfg.Port, mwlogger.NewMWLogger(engine))

	// Server launch
	go func() {
		log.Printf("Server running on http://localhost%s\n", srv.Addr)
		err := srv.ListenAndServe()
		if err != nil {
			switch {
			case errors.Is(err, http.ErrServerClosed):
				log.Println("Server gracefully stopping...")
			default:
				log.Printf("Server stopped: %v", err)
				stop()
			}
		}
	}()

	// ждем отмены контекста для запуска грейсфул закрытия
	<-ctx.Done()

	shutdown(srv, cfg.ShutdownTimeout, svc, pub, rdb)
	log.Println("Exiting app...")
}

func newServer(port string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + port,
		Handler:           h,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

func shutdown(srv *http.Server, timeout time.Duration, svc ImageAPIService, pub *wbfkafka.Producer, rdb *redis.Client) {
	log.Println("Interrupt received!!! Starting shutdown sequence...")

	// даем текущим запросам доработать
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Println("Failed to drain in-flight requests:", err)
	}
	log.Println("HTTP server stopped.")

	// дожидаемся фоновых записей в кэш и очередь до закрытия соединений
	svc.Wait()

	// Closing Kafka connection:
	if pub != nil {
		if err := pub.Close(); err != nil {
			log.Println("Failed to close Kafka-producer:", err)
		}
		log.Println("Kafka-producer connection closed.")
	}

	// Closing Redis connection
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			log.Println("Failed to close Redis-conn correctly:", err)
			return
		}
		log.Println("Redis conn closed")
	}
}
