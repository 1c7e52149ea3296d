// cmd/auctionctl previews the sub-pools a room would draw from a catalog file.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/jason-s-yu/cricket-auction/internal/catalog"
	"github.com/jason-s-yu/cricket-auction/internal/game"
	"github.com/jason-s-yu/cricket-auction/internal/models"
	"github.com/pterm/pterm"
)

func main() {
	path := flag.String("catalog", "cricketers.json", "path to a JSON catalog")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed for the draw")
	flag.Parse()

	items, err := catalog.FileSource{Path: *path}.Load(context.Background())
	if err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
	printCounts(items)

	pools, err := game.BuildPools(items, game.DefaultTiers, rand.New(rand.NewSource(*seed)))
	if err != nil {
		pterm.Error.Printfln("cannot draw pools: %v", err)
		os.Exit(1)
	}
	for _, p := range pools {
		printPool(p)
	}
	pterm.Success.Printfln("drew %d pools with seed %d", len(pools), *seed)
}

func printCounts(items []*models.Cricketer) {
	counts := catalog.Counts(items)
	quotas := game.DefaultRules().Quotas()
	data := pterm.TableData{{"Role", "In catalog", "Needed"}}
	for _, role := range models.Roles {
		found := fmt.Sprint(counts[role])
		if counts[role] < quotas[role] {
			found = pterm.LightRed(found)
		}
		data = append(data, []string{string(role), found, fmt.Sprint(quotas[role])})
	}
	pterm.DefaultSection.Println("Catalog")
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func printPool(p *game.SubPool) {
	data := pterm.TableData{{"#", "Name", "Rating", "Base price"}}
	for i, c := range p.Items {
		data = append(data, []string{fmt.Sprint(i + 1), c.Name, fmt.Sprint(c.Rating), fmt.Sprint(c.BasePrice)})
	}
	pterm.DefaultSection.Println(pterm.LightYellow(p.Name))
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}
