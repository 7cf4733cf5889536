// Command main runs the database seeder for Virtuefeed.
package main

import (
	"flag"
	"log"
	"strings"

	"virtuefeed/internal/config"
	"virtuefeed/internal/database"
	"virtuefeed/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 50, "Number of users to create")
	numPosts := flag.Int("posts", 200, "Number of posts to create")
	comments := flag.Int("comments", 4, "Maximum comments per post")
	reactions := flag.Float64("reactions", 0.2, "Chance that a user reacted to a post")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	dryRun := flag.Bool("dry-run", false, "Build data without writing it")
	preset := flag.String("preset", "", "Apply a named seeder preset (overrides the count flags)")
	presetFile := flag.String("preset-file", "", "YAML file with additional presets")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")

	presets, err := seed.LoadPresetFile(*presetFile)
	if err != nil {
		log.Fatalf("Failed to load presets: %v", err)
	}

	var chosen *seed.Preset
	if *preset != "" {
		p, ok := presets[*preset]
		if !ok {
			log.Fatalf("Unknown preset %q (available: %s)", *preset, strings.Join(seed.PresetNames(presets), ", "))
		}
		chosen = &p
		log.Printf("Applying preset: %s (ignoring count flags)\n", p.Name)
	} else {
		log.Printf("Target: %d users, %d posts, clean=%v\n", *numUsers, *numPosts, *shouldClean)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	s := seed.NewSeeder(db, seed.Options{DryRun: *dryRun})

	if *shouldClean && !*dryRun {
		if err := s.ClearAll(); err != nil {
			log.Fatalf("❌ Cleanup failed: %v", err)
		}
	}

	var res seed.Result
	if chosen != nil {
		res, err = s.ApplyPreset(*chosen)
	} else {
		res, err = s.Run(*numUsers, *numPosts, *comments, *reactions)
	}
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Printf("✨ All done! users=%d posts=%d comments=%d reactions=%d", res.Users, res.Posts, res.Comments, res.Reactions)
}
