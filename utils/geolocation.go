package utils

import (
	"log"
	"net"
	"sync"

	"github.com/oschwald/geoip2-golang"
)

type GeoLocation struct {
	Country string
	City    string
}

// GeoResolver annotates node IPs with country/city from a local MaxMind
// database. A nil resolver (no database configured) resolves everything to
// empty strings, so callers never branch on availability.
type GeoResolver struct {
	db    *geoip2.Reader
	cache sync.Map // map[string]GeoLocation
}

func NewGeoResolver(dbPath string) (*GeoResolver, error) {
	if dbPath == "" {
		return nil, nil
	}
	db, err := geoip2.Open(dbPath)
	if err != nil {
		return nil, err
	}
	log.Printf("GeoIP database loaded from %s", dbPath)
	return &GeoResolver{db: db}, nil
}

func (g *GeoResolver) Close() {
	if g != nil && g.db != nil {
		g.db.Close()
	}
}

func (g *GeoResolver) Lookup(ipStr string) GeoLocation {
	if g == nil || g.db == nil || ipStr == "" {
		return GeoLocation{}
	}

	if val, ok := g.cache.Load(ipStr); ok {
		return val.(GeoLocation)
	}

	ip := net.ParseIP(ipStr)
	if ip == nil {
		return GeoLocation{}
	}

	record, err := g.db.City(ip)
	if err != nil {
		return GeoLocation{}
	}

	loc := GeoLocation{
		Country: record.Country.Names["en"],
		City:    record.City.Names["en"],
	}
	g.cache.Store(ipStr, loc)
	return loc
}
