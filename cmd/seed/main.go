// Command seed populates the database with demo users and debates.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"arena/internal/clock"
	"arena/internal/config"
	"arena/internal/database"
	"arena/internal/repository"
	"arena/internal/seed"
	"arena/internal/service"
	"arena/internal/validation"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

var rootCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate the database with demo debates",
	Long: `Creates users, debates, arguments and votes. Activity is generated at
past timestamps so the data set has both open and closed debates.

Pass --scenario to replay a YAML file instead of random data.`,
	RunE:         runSeed,
	SilenceUsage: true,
}

func init() {
	flags := rootCmd.Flags()
	flags.Int("users", 20, "number of users to create")
	flags.Int("debates", 10, "number of debates to create")
	flags.Int("arguments", 6, "arguments per debate")
	flags.Int("votes", 4, "vote attempts per argument")
	flags.Int("days", 14, "spread debate start times over this many past days")
	flags.String("scenario", "", "YAML scenario file to apply instead of random data")
	flags.Bool("clean", false, "delete existing data before seeding")
	flags.Int64("rand-seed", 0, "random seed (0 uses the current time)")
	flags.Bool("fast-hash", true, "hash passwords with the minimum bcrypt cost")

	// SEED_USERS, SEED_CLEAN, ... override the defaults
	viper.SetEnvPrefix("seed")
	viper.AutomaticEnv()
	_ = viper.BindPFlags(flags)
}

func runSeed(cmd *cobra.Command, _ []string) error {
	log.Println("🌱 Database Seeder")
	log.Println("==================")

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	if viper.GetBool("clean") {
		log.Println("🗑️  Clearing existing data...")
		if err := database.Clear(db); err != nil {
			return fmt.Errorf("cleanup failed: %w", err)
		}
	}

	randSeed := viper.GetInt64("rand-seed")
	if randSeed == 0 {
		randSeed = time.Now().UnixNano()
	}

	clk := clock.NewManual(time.Now().UTC())
	users := service.NewUserService(repository.NewUserRepository(db), clk)
	if viper.GetBool("fast-hash") {
		users = users.WithHashCost(bcrypt.MinCost)
	}
	engine := service.NewDebateEngine(
		repository.NewDebateRepository(db),
		clk,
		validation.NewContentFilter(cfg.BannedWordList()),
	)
	seeder := seed.NewSeeder(users, engine, clk, randSeed)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var summary *seed.Summary
	if path := viper.GetString("scenario"); path != "" {
		log.Printf("Applying scenario: %s", path)
		sc, err := seed.LoadScenario(path)
		if err != nil {
			return err
		}
		summary, err = seeder.ApplyScenario(ctx, sc)
		if err != nil {
			return err
		}
	} else {
		opts := seed.Options{
			Users:              viper.GetInt("users"),
			Debates:            viper.GetInt("debates"),
			ArgumentsPerDebate: viper.GetInt("arguments"),
			VotesPerArgument:   viper.GetInt("votes"),
			MaxDays:            viper.GetInt("days"),
		}
		log.Printf("Target: %d users, %d debates, clean=%v", opts.Users, opts.Debates, viper.GetBool("clean"))
		summary, err = seeder.Random(ctx, opts)
		if err != nil {
			return err
		}
	}

	log.Printf("✨ All done! Created %s", summary)
	log.Printf("📧 Random users have the password: %s", seed.DefaultPassword)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
