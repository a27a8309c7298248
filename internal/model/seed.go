package model

// SeedMembers 无持久化数据时的内置示例成员
func SeedMembers() []Member {
	return []Member{
		{ID: "1", Name: "Alex Morgan", Role: "Chef d'équipe", Status: StatusPresent, ArrivalTime: "08:00", BreakStart: "12:00", BreakEnd: "13:00", DepartureTime: "17:00"},
		{ID: "2", Name: "Jordan Smith", Role: "Relais technique", Status: StatusPresent, ArrivalTime: "07:45", BreakStart: "12:30", BreakEnd: "13:30", DepartureTime: "16:45"},
		{ID: "3", Name: "Riley King", Role: "Salarié en insertion", Status: StatusAbsent, AbsenceReason: AbsenceCP},
		{ID: "4", Name: "Taylor Hughes", Role: "Cariste", Status: StatusPresent, ArrivalTime: "08:15", BreakStart: "12:00", BreakEnd: "13:00", DepartureTime: "17:15"},
	}
}
