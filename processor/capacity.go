package processor

import (
	"strconv"

	"bitcraftsd/models"
)

// inventoryLayout is the slot count and slot size of a player inventory
// plus a clipper boat for one item category.
type inventoryLayout struct {
	playerSlots    int64
	playerSlotSize int64
	boatSlots      int64
	boatSlotSize   int64
}

var layouts = map[string]inventoryLayout{
	models.CategoryItem:  {playerSlots: 25, playerSlotSize: 6000, boatSlots: 30, boatSlotSize: 6000},
	models.CategoryCargo: {playerSlots: 1, playerSlotSize: 6000, boatSlots: 6, boatSlotSize: 60000},
}

// Capacity is how many units of an item fit into one trip.
type Capacity struct {
	Units    int64
	Infinite bool
}

func (c Capacity) String() string {
	if c.Infinite {
		return "∞"
	}
	return formatThousands(c.Units)
}

// EstimateCapacity computes the units that fit into the player inventory
// and the clipper boat together. Zero-volume items fit without limit.
func EstimateCapacity(category string, volume int64) (Capacity, error) {
	layout, ok := layouts[category]
	if !ok {
		return Capacity{}, &UnknownCategoryError{Category: category}
	}
	if volume < 0 {
		return Capacity{}, ErrNegativeVolume
	}
	if volume == 0 {
		return Capacity{Infinite: true}, nil
	}
	units := layout.playerSlots*(layout.playerSlotSize/volume) +
		layout.boatSlots*(layout.boatSlotSize/volume)
	return Capacity{Units: units}, nil
}

func formatThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := false
	if n < 0 {
		neg = true
		s = s[1:]
	}
	out := make([]byte, 0, len(s)+len(s)/3+1)
	for i := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, s[i])
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}
