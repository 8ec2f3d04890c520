// Command seed populates the database with the catalog and optional demo data.
package main

import (
	"context"
	"flag"
	"log"

	"unajuda/internal/config"
	"unajuda/internal/database"
	"unajuda/internal/seed"
)

func main() {
	opts := seed.DefaultOptions
	flag.BoolVar(&opts.Demo, "demo", true, "Generate demo users, questions, answers and votes")
	flag.BoolVar(&opts.ShouldClean, "clean", false, "Delete users and content before seeding (catalog is kept)")
	flag.IntVar(&opts.NumUsers, "users", opts.NumUsers, "Number of demo users")
	flag.IntVar(&opts.NumQuestions, "questions", opts.NumQuestions, "Number of demo questions")
	flag.IntVar(&opts.AnswersPerQ, "answers", opts.AnswersPerQ, "Maximum answers per question")
	flag.Int64Var(&opts.Seed, "seed", 0, "Random seed (0 picks one)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	log.Printf("Seeding: demo=%t users=%d questions=%d clean=%t", opts.Demo, opts.NumUsers, opts.NumQuestions, opts.ShouldClean)
	if err := seed.Run(context.Background(), db, opts); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Println("Seeding finished")
	if opts.Demo {
		log.Printf("Demo users share the password: %s", seed.DemoPassword)
	}
}
