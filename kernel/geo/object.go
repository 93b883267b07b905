package geo

import (
	"encoding/json"
	"fmt"
)

// Object-form geometry constructors: the {_latitude: ..., _longitude: ...}
// shapes carried by cast keywords in a document body.

func objFloat(m map[string]interface{}, keys ...string) (float64, bool) {
	for _, k := range keys {
		v, ok := m[k]
		if !ok {
			continue
		}
		switch x := v.(type) {
		case float64:
			return x, true
		case int:
			return float64(x), true
		case int64:
			return float64(x), true
		case json.Number:
			f, err := x.Float64()
			if err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

// PointFromObject builds a Point from {_latitude, _longitude[, _height]}.
func PointFromObject(m map[string]interface{}) (Point, error) {
	lat, ok := objFloat(m, "_latitude", "_lat")
	if !ok {
		return Point{}, fmt.Errorf("point object has no _latitude")
	}
	lon, ok := objFloat(m, "_longitude", "_lon")
	if !ok {
		return Point{}, fmt.Errorf("point object has no _longitude")
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 360 {
		return Point{}, fmt.Errorf("point (%v, %v) out of range", lat, lon)
	}
	p := Point{Lat: lat, Lon: lon}
	if h, ok := objFloat(m, "_height"); ok {
		p.Height = h
	}
	return p, nil
}

// CircleFromObject builds a Circle from {_latitude, _longitude, _radius}.
func CircleFromObject(m map[string]interface{}) (Circle, error) {
	p, err := PointFromObject(m)
	if err != nil {
		return Circle{}, err
	}
	r, ok := objFloat(m, "_radius")
	if !ok || r <= 0 {
		return Circle{}, fmt.Errorf("circle object has no valid _radius")
	}
	return Circle{Center: p, Radius: r}, nil
}

func pointList(v interface{}) ([]Point, error) {
	list, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("expected a list of points")
	}
	var points []Point
	for _, item := range list {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("expected a point object")
		}
		p, err := PointFromObject(m)
		if err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, nil
}

// ShapeFromObject dispatches an object-form cast body to its geometry. kind
// is the cast keyword without the leading underscore ("point", "circle", ...).
func ShapeFromObject(kind string, v interface{}) (Shape, error) {
	switch kind {
	case "point":
		m, ok := v.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("_point expects an object")
		}
		return PointFromObject(m)
	case "circle":
		m, ok := v.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("_circle expects an object")
		}
		return CircleFromObject(m)
	case "polygon":
		points, err := pointList(v)
		if err != nil {
			return nil, err
		}
		if len(points) < 3 {
			return nil, fmt.Errorf("_polygon needs at least 3 points")
		}
		return Polygon{Vertices: points}, nil
	case "chull":
		points, err := pointList(v)
		if err != nil {
			return nil, err
		}
		return Chull{Points: points}, nil
	case "convex":
		list, ok := v.([]interface{})
		if !ok {
			return nil, fmt.Errorf("_convex expects a list of circles")
		}
		var circles []Circle
		for _, item := range list {
			m, ok := item.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("_convex expects circle objects")
			}
			c, err := CircleFromObject(m)
			if err != nil {
				return nil, err
			}
			circles = append(circles, c)
		}
		return Convex{Circles: circles}, nil
	case "multipoint", "multicircle", "multiconvex", "multipolygon", "multichull", "geo_collection":
		list, ok := v.([]interface{})
		if !ok {
			return nil, fmt.Errorf("_%s expects a list", kind)
		}
		inner := innerKind(kind)
		var shapes []Shape
		for _, item := range list {
			var (
				s   Shape
				err error
			)
			if inner == "" {
				s, err = shapeFromAny(item)
			} else {
				s, err = ShapeFromObject(inner, item)
			}
			if err != nil {
				return nil, err
			}
			shapes = append(shapes, s)
		}
		return MultiShape{Shapes: shapes}, nil
	case "geo_intersection":
		list, ok := v.([]interface{})
		if !ok {
			return nil, fmt.Errorf("_geo_intersection expects a list")
		}
		var shapes []Shape
		for _, item := range list {
			s, err := shapeFromAny(item)
			if err != nil {
				return nil, err
			}
			shapes = append(shapes, s)
		}
		return Intersection{Shapes: shapes}, nil
	case "ewkt":
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("_ewkt expects a string")
		}
		return ParseEWKT(s)
	}
	return nil, fmt.Errorf("unknown geometry cast _%s", kind)
}

func innerKind(kind string) string {
	switch kind {
	case "multipoint":
		return "point"
	case "multicircle":
		return "circle"
	case "multiconvex":
		return "convex"
	case "multipolygon":
		return "polygon"
	case "multichull":
		return "chull"
	}
	return ""
}

// shapeFromAny accepts an EWKT string or a single-key cast object.
func shapeFromAny(v interface{}) (Shape, error) {
	switch x := v.(type) {
	case string:
		return ParseEWKT(x)
	case map[string]interface{}:
		if len(x) == 1 {
			for k, inner := range x {
				if len(k) > 1 && k[0] == '_' {
					return ShapeFromObject(k[1:], inner)
				}
			}
		}
		return PointFromObject(x)
	}
	return nil, fmt.Errorf("cannot interpret %v as a geometry", v)
}

// IsGeoCast reports whether the cast keyword (without underscore) names a
// geometry form.
func IsGeoCast(kind string) bool {
	switch kind {
	case "point", "circle", "convex", "polygon", "chull",
		"multipoint", "multicircle", "multiconvex", "multipolygon", "multichull",
		"geo_collection", "geo_intersection", "ewkt":
		return true
	}
	return false
}
