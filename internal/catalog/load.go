package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// sections maps file basenames to the part of the catalog they override.
var sections = []string{"restaurant", "activities", "events", "services"}

var extensions = []string{".yaml", ".yml", ".json"}

// Load reads section files (restaurant, activities, events, services; YAML or
// JSON) from dir and merges them over the defaults field by field. The
// returned catalog is always usable: files that fail to parse are reported in
// err and their section keeps the defaults.
func Load(dir string) (*Catalog, error) {
	cat := Default()
	if dir == "" {
		return cat, nil
	}

	var errs []error
	for _, section := range sections {
		path, ok := findFile(dir, section)
		if !ok {
			continue
		}
		if err := loadSection(cat, section, path); err != nil {
			errs = append(errs, err)
		}
	}
	return cat, errors.Join(errs...)
}

func findFile(dir, section string) (string, bool) {
	for _, ext := range extensions {
		path := filepath.Join(dir, section+ext)
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}

func loadSection(cat *Catalog, section, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	def := Default()
	switch section {
	case "restaurant":
		var r Restaurant
		if err := decode(path, data, &r); err != nil {
			return err
		}
		cat.Restaurant = mergeRestaurant(r, def.Restaurant)
	case "activities":
		var a Activities
		if err := decode(path, data, &a); err != nil {
			return err
		}
		cat.Activities = mergeActivities(a, def.Activities)
	case "events":
		var e Events
		if err := decode(path, data, &e); err != nil {
			return err
		}
		cat.Events = mergeEvents(e, def.Events)
	case "services":
		var s Services
		if err := decode(path, data, &s); err != nil {
			return err
		}
		cat.Services = mergeServices(s, def.Services)
	}
	return nil
}

func decode(path string, data []byte, v any) error {
	var err error
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, v)
	} else {
		err = yaml.Unmarshal(data, v)
	}
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func str(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func price(v, def float64) float64 {
	if v <= 0 {
		return def
	}
	return v
}

// named keeps the items that have a name, or def when none do.
func named[T any](items []T, name func(T) string, def []T) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if strings.TrimSpace(name(it)) != "" {
			out = append(out, it)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

// priced gives an item without a price the price of the default item with the
// same name, and drops it when there is none. Every listed dish, activity and
// event is shown with a price.
func priced[T any](items []T, name func(T) string, price func(T) float64, setPrice func(*T, float64), def []T) []T {
	key := func(it T) string { return strings.ToLower(strings.TrimSpace(name(it))) }
	defaults := make(map[string]float64, len(def))
	for _, d := range def {
		defaults[key(d)] = price(d)
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		if price(it) <= 0 {
			p := defaults[key(it)]
			if p <= 0 {
				continue
			}
			setPrice(&it, p)
		}
		out = append(out, it)
	}
	return out
}

func dishes(items, def []MenuItem) []MenuItem {
	return named(priced(items,
		func(m MenuItem) string { return m.Name },
		func(m MenuItem) float64 { return m.Price },
		func(m *MenuItem, p float64) { m.Price = p },
		def,
	), func(m MenuItem) string { return m.Name }, def)
}

func activityItems(items, def []Activity) []Activity {
	return named(priced(items,
		func(x Activity) string { return x.Name },
		func(x Activity) float64 { return x.Price },
		func(x *Activity, p float64) { x.Price = p },
		def,
	), func(x Activity) string { return x.Name }, def)
}

func eventItems(items, def []Event) []Event {
	return named(priced(items,
		func(x Event) string { return x.Name },
		func(x Event) float64 { return x.Price },
		func(x *Event, p float64) { x.Price = p },
		def,
	), func(x Event) string { return x.Name }, def)
}

func mergeContact(c, def Contact) Contact {
	return Contact{
		Phone:     str(c.Phone, def.Phone),
		Email:     str(c.Email, def.Email),
		Extension: str(c.Extension, def.Extension),
		Notes:     str(c.Notes, def.Notes),
	}
}

func mergeRestaurant(r, def Restaurant) Restaurant {
	dietary := named(r.Dietary, func(s string) string { return s }, def.Dietary)
	return Restaurant{
		Name:        str(r.Name, def.Name),
		Description: str(r.Description, def.Description),
		Hours: Hours{
			Lunch:     str(r.Hours.Lunch, def.Hours.Lunch),
			Dinner:    str(r.Hours.Dinner, def.Hours.Dinner),
			ClosedDay: str(r.Hours.ClosedDay, def.Hours.ClosedDay),
		},
		Menu: Menu{
			Antipasti: dishes(r.Menu.Antipasti, def.Menu.Antipasti),
			Primi:     dishes(r.Menu.Primi, def.Menu.Primi),
			Secondi:   dishes(r.Menu.Secondi, def.Menu.Secondi),
			Dolci:     dishes(r.Menu.Dolci, def.Menu.Dolci),
		},
		Dietary: dietary,
		Booking: mergeContact(r.Booking, def.Booking),
	}
}

func mergeActivities(a, def Activities) Activities {
	return Activities{
		Intro:   str(a.Intro, def.Intro),
		Items:   activityItems(a.Items, def.Items),
		Booking: mergeContact(a.Booking, def.Booking),
	}
}

func mergeEvents(e, def Events) Events {
	return Events{
		Intro:   str(e.Intro, def.Intro),
		Items:   eventItems(e.Items, def.Items),
		Booking: mergeContact(e.Booking, def.Booking),
	}
}

func mergeService(s, def Service) Service {
	return Service{
		Name:        str(s.Name, def.Name),
		Description: str(s.Description, def.Description),
		Hours:       str(s.Hours, def.Hours),
		Price:       price(s.Price, def.Price),
		PriceNote:   str(s.PriceNote, def.PriceNote),
	}
}

func mergeServices(s, def Services) Services {
	return Services{
		Intro:    str(s.Intro, def.Intro),
		Items:    named(s.Items, func(x Service) string { return x.Name }, def.Items),
		Spa:      mergeService(s.Spa, def.Spa),
		Transfer: mergeService(s.Transfer, def.Transfer),
	}
}
