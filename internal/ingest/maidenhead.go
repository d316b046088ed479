package ingest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/signalsfoundry/searcharc/model"
)

// ErrBadLocator is returned by GridCenter for locators that cannot be
// decoded into a position.
var ErrBadLocator = errors.New("bad maidenhead locator")

// GridCenter decodes a Maidenhead locator into the center of the cell it
// names. Four characters resolve a 2x1 degree square, six characters a
// 5x2.5 arc-minute subsquare. The field pair must fall in A-R, the square
// pair must be digits, and a subsquare pair, when present as letters, must
// fall in A-X. Anything shorter than four characters is rejected.
func GridCenter(locator string) (model.LatLon, error) {
	g := strings.ToUpper(strings.TrimSpace(locator))
	if len(g) < 4 {
		return model.LatLon{}, fmt.Errorf("%w: %q too short", ErrBadLocator, locator)
	}

	lonField := int(g[0] - 'A')
	latField := int(g[1] - 'A')
	if lonField < 0 || lonField > 17 || latField < 0 || latField > 17 {
		return model.LatLon{}, fmt.Errorf("%w: %q field outside A-R", ErrBadLocator, locator)
	}
	if g[2] < '0' || g[2] > '9' || g[3] < '0' || g[3] > '9' {
		return model.LatLon{}, fmt.Errorf("%w: %q square not numeric", ErrBadLocator, locator)
	}

	lon := float64(lonField)*20 - 180 + float64(g[2]-'0')*2
	lat := float64(latField)*10 - 90 + float64(g[3]-'0')*1
	sizeLon, sizeLat := 2.0, 1.0

	if len(g) >= 6 && isLetter(g[4]) && isLetter(g[5]) {
		lonSub := int(g[4] - 'A')
		latSub := int(g[5] - 'A')
		if lonSub > 23 || latSub > 23 {
			return model.LatLon{}, fmt.Errorf("%w: %q subsquare outside A-X", ErrBadLocator, locator)
		}
		lon += float64(lonSub) * (5.0 / 60.0)
		lat += float64(latSub) * (2.5 / 60.0)
		sizeLon, sizeLat = 5.0/60.0, 2.5/60.0
	}

	return model.LatLon{
		Lat: lat + sizeLat/2,
		Lon: lon + sizeLon/2,
	}, nil
}

func isLetter(c byte) bool {
	return c >= 'A' && c <= 'Z'
}
