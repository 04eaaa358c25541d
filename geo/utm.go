package geo

import (
	"fmt"
	"math"
)

// WGS84 ellipsoid and UTM constants.
const (
	wgs84SemiMajor  = 6378137.0
	wgs84Flattening = 1 / 298.257223563

	utmScaleFactor   = 0.9996
	utmFalseEasting  = 500000.0
	utmFalseNorthing = 10000000.0
)

var ErrOutsideUTMRange = fmt.Errorf("latitude outside UTM range (84S to 84N)")

// UTMZone returns the longitudinal UTM zone number for a longitude.
func UTMZone(lon float64) int {
	zone := int(math.Floor((lon+180)/6)) + 1
	if zone < 1 {
		zone = 1
	}
	if zone > 60 {
		zone = 60
	}
	return zone
}

// ToUTM projects a geographic coordinate onto its UTM zone, returning
// easting and northing in meters plus the zone used.
func ToUTM(lat, lon float64) (easting, northing float64, zone int, err error) {
	if lat < -84 || lat > 84 {
		return 0, 0, 0, ErrOutsideUTMRange
	}
	zone = UTMZone(lon)
	easting, northing = transverseMercator(lat, lon, zoneCentralMeridian(zone))
	if lat < 0 {
		northing += utmFalseNorthing
	}
	return easting, northing, zone, nil
}

func zoneCentralMeridian(zone int) float64 {
	return float64((zone-1)*6 - 180 + 3)
}

// transverseMercator is the ellipsoidal series expansion, accurate to well
// under a meter inside a zone.
func transverseMercator(lat, lon, centralMeridianDeg float64) (easting, northing float64) {
	phi := lat * math.Pi / 180
	dLambda := (lon - centralMeridianDeg) * math.Pi / 180

	e2 := wgs84Flattening * (2 - wgs84Flattening)
	ep2 := e2 / (1 - e2)

	sinPhi, cosPhi := math.Sin(phi), math.Cos(phi)
	tanPhi := sinPhi / cosPhi

	n := wgs84SemiMajor / math.Sqrt(1-e2*sinPhi*sinPhi)
	t := tanPhi * tanPhi
	c := ep2 * cosPhi * cosPhi
	a := cosPhi * dLambda

	m := wgs84SemiMajor * ((1-e2/4-3*e2*e2/64-5*e2*e2*e2/256)*phi -
		(3*e2/8+3*e2*e2/32+45*e2*e2*e2/1024)*math.Sin(2*phi) +
		(15*e2*e2/256+45*e2*e2*e2/1024)*math.Sin(4*phi) -
		(35*e2*e2*e2/3072)*math.Sin(6*phi))

	easting = utmScaleFactor*n*(a+(1-t+c)*a*a*a/6+
		(5-18*t+t*t+72*c-58*ep2)*a*a*a*a*a/120) + utmFalseEasting

	northing = utmScaleFactor * (m + n*tanPhi*(a*a/2+
		(5-t+9*c+4*c*c)*a*a*a*a/24+
		(61-58*t+t*t+600*c-330*ep2)*a*a*a*a*a*a/720))
	return easting, northing
}

// DistanceUTM is the planar distance in meters between two geographic points
// projected into the first point's UTM zone, so both ends share a plane even
// across a zone boundary. Approximate reports true when the projection was
// unusable and the 111 km/deg equirectangular fallback was applied instead.
func DistanceUTM(lat1, lon1, lat2, lon2 float64) (meters float64, approximate bool) {
	if lat1 >= -84 && lat1 <= 84 && lat2 >= -84 && lat2 <= 84 {
		zone := UTMZone(lon1)
		cm := zoneCentralMeridian(zone)
		e1, n1 := transverseMercator(lat1, lon1, cm)
		e2, n2 := transverseMercator(lat2, lon2, cm)
		return math.Hypot(e2-e1, n2-n1), false
	}

	dLat := (lat2 - lat1) * 111000
	dLon := (lon2 - lon1) * 111000 * math.Cos(lat1*math.Pi/180)
	return math.Hypot(dLat, dLon), true
}
