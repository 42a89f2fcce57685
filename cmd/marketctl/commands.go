package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/shopspring/decimal"

	"wastemarket/mobile/internal/app"
	"wastemarket/mobile/internal/models"
	"wastemarket/mobile/internal/session"
)

var errNotSignedIn = errors.New("not signed in")

func newFlags(name string) *flag.FlagSet {
	return flag.NewFlagSet(name, flag.ContinueOnError)
}

func oneArg(fs *flag.FlagSet, args []string, what string) (string, error) {
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if fs.NArg() != 1 {
		return "", fmt.Errorf("%s requires exactly one %s", fs.Name(), what)
	}
	return fs.Arg(0), nil
}

func listFlags(fs *flag.FlagSet) *models.ListParams {
	var p models.ListParams
	fs.IntVar(&p.Page, "page", 0, "page number")
	fs.IntVar(&p.Limit, "limit", 0, "page size")
	fs.StringVar(&p.Status, "status", "", "status filter")
	return &p
}

func login(ctx context.Context, a *app.App, args []string) (any, error) {
	fs := newFlags("login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := a.SignIn(ctx, *email, *password); err != nil {
		return nil, err
	}
	return a.Session.Snapshot(), nil
}

func register(ctx context.Context, a *app.App, args []string) (any, error) {
	fs := newFlags("register")
	username := fs.String("username", "", "display name")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "at least 6 characters")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := a.SignUp(ctx, *username, *email, *password); err != nil {
		return nil, err
	}
	return a.Session.Snapshot(), nil
}

func logout(ctx context.Context, a *app.App, _ []string) (any, error) {
	a.SignOut(ctx)
	return a.Session.Snapshot(), nil
}

func whoami(ctx context.Context, a *app.App, args []string) (any, error) {
	fs := newFlags("whoami")
	refresh := fs.Bool("refresh", false, "re-read the profile, keeping the user if the server is unreachable")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	// The resulting state is what matters; a failed refresh keeps the user.
	if *refresh {
		_ = a.RefreshProfile(ctx)
	}
	if a.Session.State() != session.StateAuthenticated {
		return nil, errNotSignedIn
	}
	return a.Session.User(), nil
}

func products(ctx context.Context, a *app.App, args []string) (any, error) {
	fs := newFlags("products")
	var f models.ProductFilters
	fs.StringVar(&f.Category, "category", "", "category name")
	fs.StringVar(&f.Search, "search", "", "text in title or description")
	fs.StringVar(&f.Location, "location", "", "pickup location")
	fs.IntVar(&f.Page, "page", 0, "page number")
	fs.IntVar(&f.Limit, "limit", 0, "page size")
	status := fs.String("status", "", "available, pending or sold")
	minPrice := fs.String("min-price", "", "lowest price")
	maxPrice := fs.String("max-price", "", "highest price")
	feed := fs.Bool("feed", false, "marketplace feed: first 100 available items")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if *feed {
		category := f.Category
		if category == "" {
			category = "All"
		}
		return a.Browse(ctx, category, f.Search)
	}

	f.Status = models.ProductStatus(*status)
	var err error
	if f.MinPrice, err = optionalPrice(*minPrice); err != nil {
		return nil, err
	}
	if f.MaxPrice, err = optionalPrice(*maxPrice); err != nil {
		return nil, err
	}
	return a.Products.GetProducts(ctx, f)
}

func optionalPrice(s string) (*decimal.Decimal, error) {
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid price %q", s)
	}
	return &d, nil
}

func product(ctx context.Context, a *app.App, args []string) (any, error) {
	id, err := oneArg(newFlags("product"), args, "product id")
	if err != nil {
		return nil, err
	}
	return a.Products.GetProduct(ctx, id)
}

func post(ctx context.Context, a *app.App, args []string) (any, error) {
	form := app.NewListingForm()
	fs := newFlags("post")
	fs.StringVar(&form.Name, "name", "", "seller name shown on the listing")
	fs.StringVar(&form.Title, "title", "", "listing title")
	fs.StringVar(&form.Description, "description", "", "listing description")
	fs.StringVar(&form.Price, "price", form.Price, "price, 0 for free")
	fs.StringVar(&form.Location, "location", "", "pickup location")
	fs.StringVar(&form.Category, "category", form.Category, "category name")
	fs.StringVar(&form.Status, "status", form.Status, "available, pending or sold")
	fs.StringVar(&form.ImageURI, "image", "", "image URL or file:// path")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return a.PostListing(ctx, form)
}

func buy(ctx context.Context, a *app.App, args []string) (any, error) {
	id, err := oneArg(newFlags("buy"), args, "product id")
	if err != nil {
		return nil, err
	}
	resp, err := a.Products.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if resp.Product == nil {
		return nil, fmt.Errorf("product %s not found", id)
	}
	return a.Buy(ctx, *resp.Product)
}

func categories(ctx context.Context, a *app.App, _ []string) (any, error) {
	return a.Categories.GetCategories(ctx)
}

func listings(ctx context.Context, a *app.App, args []string) (any, error) {
	fs := newFlags("listings")
	params := listFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return a.Auth.GetMyListings(ctx, *params)
}

func orders(ctx context.Context, a *app.App, args []string) (any, error) {
	fs := newFlags("orders")
	params := listFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return a.Orders.GetOrderHistory(ctx, *params)
}

func purchases(ctx context.Context, a *app.App, _ []string) (any, error) {
	return a.Purchases(ctx)
}

func order(ctx context.Context, a *app.App, args []string) (any, error) {
	id, err := oneArg(newFlags("order"), args, "order id")
	if err != nil {
		return nil, err
	}
	return a.Orders.GetOrderDetails(ctx, id)
}

func orderStatus(status models.OrderStatus) command {
	return func(ctx context.Context, a *app.App, args []string) (any, error) {
		fs := newFlags(string(status))
		notes := fs.String("notes", "", "note for the buyer")
		id, err := oneArg(fs, args, "order id")
		if err != nil {
			return nil, err
		}
		return a.Orders.UpdateOrderStatus(ctx, id, status, *notes)
	}
}

func cancel(ctx context.Context, a *app.App, args []string) (any, error) {
	fs := newFlags("cancel")
	reason := fs.String("reason", "", "why the order is cancelled")
	id, err := oneArg(fs, args, "order id")
	if err != nil {
		return nil, err
	}
	return a.Orders.CancelOrder(ctx, id, *reason)
}

func upload(ctx context.Context, a *app.App, args []string) (any, error) {
	uri, err := oneArg(newFlags("upload"), args, "image uri")
	if err != nil {
		return nil, err
	}
	url, err := a.Uploads.UploadImage(ctx, uri)
	if err != nil {
		return nil, err
	}
	return models.UploadResponse{Success: true, ImageURL: url}, nil
}
