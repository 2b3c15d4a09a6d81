package quest

// Character attribute tables keyed by class code. The client's class
// codes run 0-11; anything higher maps to -1, which reaches the
// interpreter as 0xFFFFFFFF.
var (
	classGenders = [12]uint32{0, 1, 0, 0, 0, 1, 1, 0, 1, 1, 0, 1}
	classRaces   = [12]uint32{0, 1, 2, 0, 2, 2, 0, 1, 1, 2, 0, 0}
	classJobs    = [12]uint32{0, 0, 0, 1, 1, 1, 2, 2, 2, 0, 2, 1}
)

// classAttr looks up a class-keyed attribute table, yielding the
// out-of-range sentinel for unknown class codes.
func classAttr(table *[12]uint32, class uint32) uint32 {
	if class >= 12 {
		return 0xFFFFFFFF
	}
	return table[class]
}

func genderOf(class uint32) uint32 { return classAttr(&classGenders, class) }
func raceOf(class uint32) uint32   { return classAttr(&classRaces, class) }
func jobOf(class uint32) uint32    { return classAttr(&classJobs, class) }
