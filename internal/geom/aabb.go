package geom

// Aabb is an axis-aligned bounding box, min/max corners inclusive.
type Aabb struct {
	Min Vector3
	Max Vector3
}

func NewAabb(min, max Vector3) Aabb {
	return Aabb{Min: min, Max: max}
}

func (b Aabb) Width() float32 {
	return b.Max.X - b.Min.X
}

// Translate moves the box by offset.
func (b Aabb) Translate(offset Vector3) Aabb {
	return Aabb{Min: b.Min.Add(offset), Max: b.Max.Add(offset)}
}

// Expand grows the box by d on every axis in both directions.
func (b Aabb) Expand(d float32) Aabb {
	return Aabb{
		Min: Vector3{b.Min.X - d, b.Min.Y - d, b.Min.Z - d},
		Max: Vector3{b.Max.X + d, b.Max.Y + d, b.Max.Z + d},
	}
}

// Contains reports whether p lies inside the box.
func (b Aabb) Contains(p Vector3) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Intersects reports whether the two boxes overlap, boundary touch included.
func (b Aabb) Intersects(o Aabb) bool {
	return b.Min.X <= o.Max.X && b.Max.X >= o.Min.X &&
		b.Min.Y <= o.Max.Y && b.Max.Y >= o.Min.Y &&
		b.Min.Z <= o.Max.Z && b.Max.Z >= o.Min.Z
}
