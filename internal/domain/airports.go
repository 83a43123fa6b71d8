package domain

import "fmt"

// Airport is a reference entry used by providers keyed on ICAO codes or coordinates.
type Airport struct {
	IATA string
	ICAO string
	Name string
	Lat  float64
	Lon  float64
}

var airports = map[string]Airport{
	"AMS": {IATA: "AMS", ICAO: "EHAM", Name: "Amsterdam Schiphol", Lat: 52.3086, Lon: 4.7639},
	"ATL": {IATA: "ATL", ICAO: "KATL", Name: "Atlanta Hartsfield-Jackson", Lat: 33.6367, Lon: -84.4281},
	"BCN": {IATA: "BCN", ICAO: "LEBL", Name: "Barcelona El Prat", Lat: 41.2971, Lon: 2.0785},
	"BOS": {IATA: "BOS", ICAO: "KBOS", Name: "Boston Logan", Lat: 42.3643, Lon: -71.0052},
	"BRU": {IATA: "BRU", ICAO: "EBBR", Name: "Brussels", Lat: 50.9010, Lon: 4.4844},
	"CDG": {IATA: "CDG", ICAO: "LFPG", Name: "Paris Charles de Gaulle", Lat: 49.0097, Lon: 2.5479},
	"CPH": {IATA: "CPH", ICAO: "EKCH", Name: "Copenhagen Kastrup", Lat: 55.6180, Lon: 12.6508},
	"DEN": {IATA: "DEN", ICAO: "KDEN", Name: "Denver", Lat: 39.8617, Lon: -104.6732},
	"DFW": {IATA: "DFW", ICAO: "KDFW", Name: "Dallas/Fort Worth", Lat: 32.8968, Lon: -97.0380},
	"DUB": {IATA: "DUB", ICAO: "EIDW", Name: "Dublin", Lat: 53.4213, Lon: -6.2701},
	"DXB": {IATA: "DXB", ICAO: "OMDB", Name: "Dubai", Lat: 25.2528, Lon: 55.3644},
	"EWR": {IATA: "EWR", ICAO: "KEWR", Name: "Newark Liberty", Lat: 40.6925, Lon: -74.1687},
	"FCO": {IATA: "FCO", ICAO: "LIRF", Name: "Rome Fiumicino", Lat: 41.8003, Lon: 12.2389},
	"FRA": {IATA: "FRA", ICAO: "EDDF", Name: "Frankfurt", Lat: 50.0333, Lon: 8.5706},
	"HEL": {IATA: "HEL", ICAO: "EFHK", Name: "Helsinki Vantaa", Lat: 60.3172, Lon: 24.9633},
	"IAD": {IATA: "IAD", ICAO: "KIAD", Name: "Washington Dulles", Lat: 38.9445, Lon: -77.4558},
	"IST": {IATA: "IST", ICAO: "LTFM", Name: "Istanbul", Lat: 41.2753, Lon: 28.7519},
	"JFK": {IATA: "JFK", ICAO: "KJFK", Name: "New York John F. Kennedy", Lat: 40.6398, Lon: -73.7789},
	"LAX": {IATA: "LAX", ICAO: "KLAX", Name: "Los Angeles", Lat: 33.9425, Lon: -118.4081},
	"LGW": {IATA: "LGW", ICAO: "EGKK", Name: "London Gatwick", Lat: 51.1481, Lon: -0.1903},
	"LHR": {IATA: "LHR", ICAO: "EGLL", Name: "London Heathrow", Lat: 51.4700, Lon: -0.4543},
	"LIS": {IATA: "LIS", ICAO: "LPPT", Name: "Lisbon Humberto Delgado", Lat: 38.7813, Lon: -9.1359},
	"MAD": {IATA: "MAD", ICAO: "LEMD", Name: "Madrid Barajas", Lat: 40.4719, Lon: -3.5626},
	"MAN": {IATA: "MAN", ICAO: "EGCC", Name: "Manchester", Lat: 53.3537, Lon: -2.2750},
	"MUC": {IATA: "MUC", ICAO: "EDDM", Name: "Munich", Lat: 48.3538, Lon: 11.7861},
	"MXP": {IATA: "MXP", ICAO: "LIMC", Name: "Milan Malpensa", Lat: 45.6306, Lon: 8.7281},
	"ORD": {IATA: "ORD", ICAO: "KORD", Name: "Chicago O'Hare", Lat: 41.9786, Lon: -87.9048},
	"OSL": {IATA: "OSL", ICAO: "ENGM", Name: "Oslo Gardermoen", Lat: 60.1939, Lon: 11.1004},
	"SEA": {IATA: "SEA", ICAO: "KSEA", Name: "Seattle-Tacoma", Lat: 47.4490, Lon: -122.3093},
	"SFO": {IATA: "SFO", ICAO: "KSFO", Name: "San Francisco", Lat: 37.6190, Lon: -122.3749},
	"VIE": {IATA: "VIE", ICAO: "LOWW", Name: "Vienna Schwechat", Lat: 48.1103, Lon: 16.5697},
	"WAW": {IATA: "WAW", ICAO: "EPWA", Name: "Warsaw Chopin", Lat: 52.1657, Lon: 20.9671},
	"ZRH": {IATA: "ZRH", ICAO: "LSZH", Name: "Zurich", Lat: 47.4647, Lon: 8.5492},
}

// LookupAirport resolves an IATA or ICAO code against the reference table.
func LookupAirport(code string) (Airport, error) {
	code = NormalizeAirportCode(code)
	if a, ok := airports[code]; ok {
		return a, nil
	}
	if len(code) == 4 {
		for _, a := range airports {
			if a.ICAO == code {
				return a, nil
			}
		}
	}
	return Airport{}, fmt.Errorf("%w: %q", ErrUnknownAirport, code)
}
