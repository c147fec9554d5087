package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Police-Data-Accessibility-Project/data-sources-app/internal/profile"
	"github.com/Police-Data-Accessibility-Project/data-sources-app/plugin/pdap"
	"github.com/Police-Data-Accessibility-Project/data-sources-app/server"
	"github.com/Police-Data-Accessibility-Project/data-sources-app/server/service/search"
)

var version = "dev"

var (
	rootCmd = &cobra.Command{
		Use:   "pdap",
		Short: "A caching client and web front for the Police Data Sources API.",
		Run: func(_ *cobra.Command, _ []string) {
			if err := runServer(); err != nil {
				slog.Error("server exited", "error", err)
				os.Exit(1)
			}
		},
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API and the guarded frontend (the default).",
		Run: func(cmd *cobra.Command, args []string) {
			rootCmd.Run(cmd, args)
		},
	}

	searchCmd = &cobra.Command{
		Use:   "search",
		Short: "Search data sources for a location and print them grouped by agency.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			locationID, _ := cmd.Flags().GetInt("location-id")
			categories, _ := cmd.Flags().GetStringSlice("record-categories")
			if locationID <= 0 {
				return errors.New("--location-id is required")
			}
			return withServer(cmd.Context(), func(ctx context.Context, s *server.Server) error {
				results, err := s.Store.Search.Search(ctx, pdap.SearchParams{LocationID: locationID, RecordCategories: categories})
				if err != nil {
					return err
				}
				return printJSON(map[string]any{
					"grouped": search.GroupResultsByAgency(results),
					"ids":     search.GetAllIDsSearched(results),
				})
			})
		},
	}

	typeaheadCmd = &cobra.Command{
		Use:   "typeahead [query]",
		Short: "Suggest locations, or agencies with --agencies.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			agencies, _ := cmd.Flags().GetBool("agencies")
			return withServer(cmd.Context(), func(ctx context.Context, s *server.Server) error {
				if agencies {
					suggestions, err := s.Store.Typeahead.Agencies(ctx, args[0])
					if err != nil {
						return err
					}
					return printJSON(suggestions)
				}
				suggestions, err := s.Store.Typeahead.Locations(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(suggestions)
			})
		},
	}

	loginCmd = &cobra.Command{
		Use:   "login",
		Short: "Sign in and keep the tokens in local storage.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			email, _ := cmd.Flags().GetString("email")
			password := os.Getenv("PDAP_PASSWORD")
			if email == "" || password == "" {
				return errors.New("--email and PDAP_PASSWORD are required")
			}
			return withServer(cmd.Context(), func(ctx context.Context, s *server.Server) error {
				if err := s.Auth.Login(ctx, email, password); err != nil {
					return err
				}
				user := s.Auth.User()
				fmt.Printf("Signed in as %s (id %d)\n", user.Email, user.ID)
				return nil
			})
		},
	}

	logoutCmd = &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored tokens.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withServer(cmd.Context(), func(ctx context.Context, s *server.Server) error {
				s.Auth.Logout(ctx)
				return nil
			})
		},
	}
)

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("addr", profile.DefaultAddr)
	viper.SetDefault("port", 8081)
	viper.SetDefault("data", "")
	viper.SetDefault("static", "")

	rootCmd.PersistentFlags().String("mode", "dev", `mode of server, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("addr", profile.DefaultAddr, `address of server, "0.0.0.0" listens on every interface`)
	rootCmd.PersistentFlags().Int("port", 8081, "port of server")
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("static", "", "directory of the built frontend")
	rootCmd.PersistentFlags().String("api-url", "", "base URL of the Data Sources API")

	for flag, key := range map[string]string{
		"mode":    "mode",
		"addr":    "addr",
		"port":    "port",
		"data":    "data",
		"static":  "static",
		"api-url": "api_url",
	} {
		if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("pdap")
	viper.AutomaticEnv()

	searchCmd.Flags().Int("location-id", 0, "location to search")
	searchCmd.Flags().StringSlice("record-categories", nil, "record categories to include")
	typeaheadCmd.Flags().Bool("agencies", false, "suggest agencies instead of locations")
	loginCmd.Flags().String("email", "", "account email; the password is read from PDAP_PASSWORD")

	rootCmd.AddCommand(serveCmd, searchCmd, typeaheadCmd, loginCmd, logoutCmd)
}

// runServer serves until SIGINT or SIGTERM. It returns an error when the
// server cannot be configured, created or started.
func runServer() error {
	instanceProfile, err := loadProfile()
	if err != nil {
		return errors.Wrap(err, "invalid configuration")
	}
	slog.SetDefault(server.NewLogger(os.Stderr, instanceProfile))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s, err := server.NewServer(ctx, instanceProfile)
	if err != nil {
		return errors.Wrap(err, "failed to create server")
	}

	c := make(chan os.Signal, 1)
	// Trigger graceful shutdown on SIGINT or SIGTERM.
	// The default signal sent by the `kill` command is SIGTERM,
	// which is taken as the graceful shutdown signal for many systems, eg., Kubernetes, Gunicorn.
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(c)

	if err := s.Start(ctx); err != nil {
		s.Close()
		return errors.Wrap(err, "failed to start server")
	}

	printGreetings(instanceProfile)

	go func() {
		<-c
		s.Shutdown(ctx)
		cancel()
	}()

	// Wait for CTRL-C.
	<-ctx.Done()
	return nil
}

// loadProfile reads PDAP_* variables first, then lets flags and viper
// keys override them.
func loadProfile() (*profile.Profile, error) {
	instanceProfile := &profile.Profile{
		Mode:      viper.GetString("mode"),
		Addr:      viper.GetString("addr"),
		Port:      viper.GetInt("port"),
		Data:      viper.GetString("data"),
		StaticDir: viper.GetString("static"),
		Version:   version,
	}
	instanceProfile.FromEnv()
	if apiURL := viper.GetString("api_url"); apiURL != "" {
		instanceProfile.APIBaseURL = apiURL
	}
	if err := instanceProfile.Validate(); err != nil {
		return nil, err
	}
	return instanceProfile, nil
}

// withServer opens storage and session state without serving HTTP. One-off
// commands reuse the tokens in local storage; cached responses are shared
// with a running instance only through the redis session driver.
func withServer(ctx context.Context, fn func(context.Context, *server.Server) error) error {
	instanceProfile, err := loadProfile()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	s, err := server.NewServer(ctx, instanceProfile)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(ctx, s)
}

func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func printGreetings(profile *profile.Profile) {
	fmt.Printf("Data Sources client %s started successfully!\n", profile.Version)

	if profile.IsDev() {
		fmt.Fprintf(os.Stderr, "Development mode is enabled\n")
		fmt.Fprintf(os.Stderr, "Upstream API: %s\n", profile.APIBaseURL)
		if profile.Data != "" {
			fmt.Fprintf(os.Stderr, "Database: %s\n", profile.Data)
		}
	}

	fmt.Printf("Server running on port %d\n", profile.Port)
	fmt.Printf("Accessible at: http://%s:%d\n", profile.Addr, profile.Port)
	fmt.Printf("Health check: http://%s:%d/healthz\n", profile.Addr, profile.Port)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
