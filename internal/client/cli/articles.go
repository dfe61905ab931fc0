package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/nexuzy/artsync/internal/client/models"
	"github.com/nexuzy/artsync/internal/client/services"
)

// List prints all articles, newest first, with their sync state.
func (a *App) List(ctx context.Context) error {
	arts, err := a.articles.List(ctx)
	if err != nil {
		return err
	}
	if len(arts) == 0 {
		printlnFn("No articles yet. Type 'add' to create one.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tMOULD\tSIZE\tGENDER\tSTATE")
	for _, art := range arts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			art.ID, art.Name, art.Mould, art.Size, art.Gender, art.SyncState)
	}
	return w.Flush()
}

func (a *App) Show(ctx context.Context, id string) error {
	art, err := a.articles.Get(ctx, id)
	if err != nil {
		return err
	}

	fmt.Printf("ID:         %s\n", art.ID)
	fmt.Printf("Name:       %s\n", art.Name)
	fmt.Printf("Mould:      %s\n", art.Mould)
	fmt.Printf("Size:       %s\n", art.Size)
	fmt.Printf("Gender:     %s\n", art.Gender)
	fmt.Printf("Created by: %s\n", art.CreatedBy)
	fmt.Printf("Created:    %s\n", art.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Printf("Updated:    %s\n", art.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
	if art.ImagePath != "" {
		fmt.Printf("Image:      %s\n", art.ImagePath)
	}
	fmt.Printf("State:      %s\n", art.SyncState)
	return nil
}

// Add prompts for the article attributes and creates the record. The save
// is local; the sync engine pushes it in the background.
func (a *App) Add(ctx context.Context) error {
	in, err := a.promptArticle(models.Article{})
	if err != nil {
		return err
	}

	art, err := a.articles.Create(ctx, in, a.currentUser.Username)
	if err != nil {
		return err
	}
	fmt.Printf("Created %s\n", art.ID)
	return nil
}

func (a *App) Edit(ctx context.Context, id string) error {
	current, err := a.articles.Get(ctx, id)
	if err != nil {
		return err
	}

	in, err := a.promptArticle(*current)
	if err != nil {
		return err
	}

	if _, err := a.articles.Update(ctx, id, in); err != nil {
		return err
	}
	printlnFn("Saved")
	return nil
}

func (a *App) promptArticle(current models.Article) (services.ArticleInput, error) {
	var in services.ArticleInput
	var err error

	if in.Name, err = getSimpleText(a.reader, promptFor("Name", current.Name), os.Stdout); err != nil {
		return in, err
	}
	if in.Mould, err = getSimpleText(a.reader, promptFor("Mould", current.Mould), os.Stdout); err != nil {
		return in, err
	}
	if in.Size, err = GetChoice(a.reader, "Size", models.ValidSizes, current.Size, os.Stdout); err != nil {
		return in, err
	}
	if in.Gender, err = GetChoice(a.reader, "Gender", models.ValidGenders, current.Gender, os.Stdout); err != nil {
		return in, err
	}
	if in.ImagePath, err = getSimpleText(a.reader, promptFor("Image file path (optional)", current.ImagePath), os.Stdout); err != nil {
		return in, err
	}
	return in, nil
}

func promptFor(label, current string) string {
	if current == "" {
		return label
	}
	return fmt.Sprintf("%s (current: %s, Enter to keep)", label, current)
}

func (a *App) Delete(ctx context.Context, id string) error {
	if err := a.articles.Delete(ctx, id); err != nil {
		return err
	}
	printlnFn("Deleted", id)
	return nil
}

// Sync requests an immediate reconciliation pass.
func (a *App) Sync(ctx context.Context) error {
	stats, err := a.engine.RunPass(ctx)
	if err != nil {
		return err
	}
	if stats.Skipped {
		printlnFn("A sync pass is already running")
		return nil
	}
	fmt.Printf("Pushed %d of %d pending\n", stats.Pushed, stats.Pending)
	return nil
}

// Status prints the connectivity state and article counts.
func (a *App) Status(ctx context.Context) error {
	total, pending, err := a.articles.Status(ctx)
	if err != nil {
		return err
	}

	mode := "offline"
	if a.monitor.Online() {
		mode = "online"
	}
	fmt.Printf("Connectivity: %s\n", mode)
	fmt.Printf("Articles:     %d total, %d pending, %d synced\n", total, pending, total-pending)
	return nil
}
