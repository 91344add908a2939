// Command simulator runs a scripted skirmish against the condition engine:
// it loads a catalog, applies a handful of conditions and advances rounds,
// printing every tick, interaction and expiry along the way.
package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/thornmere/condition-engine/internal/config"
	"github.com/thornmere/condition-engine/internal/domain/catalog"
	"github.com/thornmere/condition-engine/internal/domain/conditions"
	"github.com/thornmere/condition-engine/internal/domain/events"
	"github.com/thornmere/condition-engine/internal/repositories/instances"
	conditionService "github.com/thornmere/condition-engine/internal/services/condition"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	cat, err := catalog.LoadFile(cfg.CatalogPath)
	if err != nil {
		log.Fatalf("Failed to load catalog %s: %v", cfg.CatalogPath, err)
	}
	log.Printf("Loaded catalog with %d templates from %s", len(cat.Templates()), cfg.CatalogPath)

	var repo instances.Repository
	switch cfg.Store {
	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() {
			if err := client.Close(); err != nil {
				log.Printf("Failed to close Redis client: %v", err)
			}
		}()
		repo = instances.NewRedis(client)
		log.Printf("Using Redis instance store at %s", cfg.Redis.Addr)
	default:
		repo = instances.NewInMemoryRepository()
		log.Println("Using in-memory instance store")
	}

	svc, err := conditionService.NewService(&conditionService.ServiceConfig{
		Catalog:    cat,
		Repository: repo,
		EventBus:   events.NewEventBus(),
	})
	if err != nil {
		log.Fatalf("Failed to create condition service: %v", err)
	}

	ctx := context.Background()
	const goblin = "goblin-1"
	const knight = "knight-1"

	mustApply(ctx, svc, goblin, &conditions.ApplyInput{TemplateID: "burning", Severity: 2, SourceText: "Fire Bolt"})
	mustApply(ctx, svc, goblin, &conditions.ApplyInput{TemplateID: "burning", Severity: 2, SourceText: "Fire Bolt"})
	mustApply(ctx, svc, goblin, &conditions.ApplyInput{TemplateID: "venom", Severity: 1, SourceText: "Spider Bite"})

	mustApply(ctx, svc, knight, &conditions.ApplyInput{TemplateID: "wet", SourceText: "River Crossing"})
	outcome, err := svc.Apply(ctx, knight, &conditions.ApplyInput{TemplateID: "burning", SourceText: "Torch"})
	if err != nil {
		log.Fatalf("Apply failed: %v", err)
	}
	if outcome.Prevented {
		log.Printf("Knight shrugs off the flames: prevented by %s", outcome.PreventedBy)
	}

	fireRes, err := svc.ResistanceModifier(ctx, knight, "fire")
	if err != nil {
		log.Fatalf("Resistance query failed: %v", err)
	}
	log.Printf("Knight fire resistance modifier: %+d", fireRes.Total)

	for round := 1; round <= 4; round++ {
		log.Printf("--- Round %d ---", round)
		outcomes, err := svc.ProcessRound(ctx, []string{goblin, knight})
		if err != nil {
			log.Fatalf("Round processing failed: %v", err)
		}
		for _, targetID := range []string{goblin, knight} {
			rc := outcomes[targetID]
			for _, tick := range rc.Start.Damage {
				log.Printf("%s takes %d %s damage from %s", targetID, tick.Amount, tick.DamageType, tick.TemplateID)
			}
			for _, tick := range rc.End.Damage {
				log.Printf("%s takes %d %s damage from %s", targetID, tick.Amount, tick.DamageType, tick.TemplateID)
			}
			for _, inst := range rc.End.Progressed {
				log.Printf("%s: %s progressed to stage %d", targetID, inst.TemplateID, inst.StageOrdinal)
			}
			for _, inst := range rc.End.Expired {
				log.Printf("%s: %s wore off", targetID, inst.TemplateID)
			}
		}
	}

	movement, err := svc.CapabilityStatus(ctx, goblin, "movement")
	if err != nil {
		log.Fatalf("Capability query failed: %v", err)
	}
	log.Printf("Goblin movement: blocked=%v modifier=%d%%", movement.Blocked, movement.ModifierPercent)

	remaining, err := svc.ActiveConditions(ctx, goblin, false)
	if err != nil {
		log.Fatalf("Query failed: %v", err)
	}
	for _, inst := range remaining {
		log.Printf("Goblin still suffers %s (stacks=%d severity=%d)", inst.TemplateID, inst.Stacks, inst.Severity)
	}
}

func mustApply(ctx context.Context, svc conditionService.Service, targetID string, input *conditions.ApplyInput) {
	outcome, err := svc.Apply(ctx, targetID, input)
	if err != nil {
		log.Fatalf("Apply %s to %s failed: %v", input.TemplateID, targetID, err)
	}
	log.Printf("%s on %s: %s", input.TemplateID, targetID, outcome.Message)
}
