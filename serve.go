package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"facility-export/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run conversions as background jobs over HTTP",
	Long: `Serve starts an HTTP server. POST a workbook to /run as the input_file
form field, poll /logs or /status with the returned job_id and fetch the
result from /download-result/<filename>. The latest successful result is
also served at /health_facilities.json for the map viewer.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	srv, err := server.New(server.Config{
		UploadDir:         viper.GetString("upload-dir"),
		OutputDir:         viper.GetString("output-dir"),
		Sheet:             viper.GetString("sheet"),
		StrictCoordinates: viper.GetBool("strict-coordinates"),
	}, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpSrv := &http.Server{
		Addr:              ":" + viper.GetString("port"),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("facility-export server listening", "addr", httpSrv.Addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("received termination signal, shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	srv.Wait()
	return nil
}

func init() {
	f := serveCmd.Flags()
	f.String("port", "9595", "port to listen on")
	f.String("upload-dir", "uploads", "directory for uploaded workbooks")
	f.String("output-dir", "output", "directory for converted JSON files")

	_ = viper.BindPFlags(f)
	_ = viper.BindEnv("port", "FACILITY_EXPORT_PORT", "PORT")

	rootCmd.AddCommand(serveCmd)
}
