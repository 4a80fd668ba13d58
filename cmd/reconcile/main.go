package main

import (
	"os"
	"os/signal"
	"syscall"

	"warble/pkg/config"
	"warble/pkg/logger"
	"warble/pkg/queue"
	"warble/pkg/s3"
)

// The reconcile worker drains orphan-blob tasks published by the post
// service. Blob deletes are idempotent, so a task that raced with a manual
// cleanup still succeeds.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New()

	s3Client, err := s3.NewClient(cfg)
	if err != nil {
		log.Error("Failed to create S3 client: %v", err)
		panic(err)
	}

	queueClient, err := queue.NewRabbitMQClient(cfg, log)
	if err != nil {
		log.Error("Failed to connect to RabbitMQ: %v", err)
		panic(err)
	}
	defer queueClient.Close()

	err = queueClient.ConsumeOrphanBlobs(func(task queue.OrphanBlobTask) error {
		log.Info("Reconciling orphan blob at %s (post %s)", task.Path, task.PostID)
		return s3Client.DeleteFile(task.Path)
	})
	if err != nil {
		log.Error("Failed to start consumer: %v", err)
		panic(err)
	}

	log.Info("Reconcile worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Reconcile worker exiting")
}
