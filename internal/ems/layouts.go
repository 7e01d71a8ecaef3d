package ems

// Telegram types with a modelled layout.
const (
	TypeVersion TypeID = 0x02

	TypeUBAMonitorFast       TypeID = 0x18
	TypeUBAMonitorSlow       TypeID = 0x19
	TypeUBAMonitorWWMessage  TypeID = 0x34
	TypeUBAParameterWW       TypeID = 0x33
	TypeUBATotalUptime       TypeID = 0x14
	TypeUBAFlags             TypeID = 0x35
	TypeUBAParametersMessage TypeID = 0x16
	TypeUBASetPoints         TypeID = 0x1A
	TypeUBAOutdoorTemp       TypeID = 0xD1
	TypeUBAMonitorFast2      TypeID = 0xE4
	TypeUBAMonitorSlow2      TypeID = 0xE5

	TypeRCTime             TypeID = 0x06
	TypeRCOutdoorTemp      TypeID = 0xA3
	TypeRC10StatusMessage  TypeID = 0xB1
	TypeRC10Set            TypeID = 0xB0
	TypeRC20StatusMessage  TypeID = 0x91
	TypeRC20Set            TypeID = 0xA8
	TypeRC30StatusMessage  TypeID = 0x41
	TypeRC30Set            TypeID = 0xA7
	TypeRC35StatusHC1      TypeID = 0x3E
	TypeRC35StatusHC2      TypeID = 0x48
	TypeRC35StatusHC3      TypeID = 0x52
	TypeRC35StatusHC4      TypeID = 0x5C
	TypeRC35SetHC1         TypeID = 0x3D
	TypeRC35SetHC2         TypeID = 0x47
	TypeRC35SetHC3         TypeID = 0x51
	TypeRC35SetHC4         TypeID = 0x5B
	TypeEasyStatusMessage  TypeID = 0x0A
	TypeRCPLUSStatusHC1    TypeID = 0x01A5
	TypeRCPLUSStatusHC2    TypeID = 0x01A6
	TypeRCPLUSStatusHC3    TypeID = 0x01A7
	TypeRCPLUSStatusHC4    TypeID = 0x01A8
	TypeRCPLUSStatusMode   TypeID = 0x01AF
	TypeRCPLUSSet          TypeID = 0x01B9
	TypeJunkersStatusMsg   TypeID = 0x6F
	TypeMMPLUSStatusHC1    TypeID = 0x01D7
	TypeMMPLUSStatusHC2    TypeID = 0x01D8
	TypeMMPLUSStatusHC3    TypeID = 0x01D9
	TypeMMPLUSStatusHC4    TypeID = 0x01DA
	TypeSM10Monitor        TypeID = 0x97
	TypeSM100Monitor       TypeID = 0x0262
	TypeSM100Status        TypeID = 0x0264
	TypeSM100Status2       TypeID = 0x026A
	TypeSM100Energy        TypeID = 0x028E
	TypeISM1StatusMessage  TypeID = 0x0003
	TypeISM1Set            TypeID = 0x0001
	TypeHPMonitor1         TypeID = 0xE3
	TypeHPMonitor2         TypeID = 0xE5
)

func hc(ids ...TypeID) []TypeID { return ids }

// messageDefs is the layout table. Offsets are relative to the first data
// byte of a telegram read from offset 0.
func messageDefs() []messageDef {
	defs := make([]messageDef, 0, 64)

	// Every device answers a Version request.
	for t := DeviceTypeBoiler; t <= DeviceTypeServiceKey; t++ {
		defs = append(defs, messageDef{
			name: "Version", owner: t, kind: MessageMonitor, ids: hc(TypeVersion),
			fields: []FieldSpec{
				u8("productId", 0, ""),
				u8("versionMajor", 1, ""),
				u8("versionMinor", 2, ""),
			},
		})
	}

	defs = append(defs, boilerDefs()...)
	defs = append(defs, thermostatDefs()...)
	defs = append(defs, mixingDefs()...)
	defs = append(defs, solarDefs()...)
	defs = append(defs, heatPumpDefs()...)
	return defs
}

func boilerDefs() []messageDef {
	b := DeviceTypeBoiler
	return []messageDef{
		{name: "UBAMonitorFast", owner: b, kind: MessageMonitor, ids: hc(TypeUBAMonitorFast), fields: []FieldSpec{
			u8("selFlowTemp", 0, "°C"),
			temp16("curFlowTemp", 1),
			u8("selBurnPow", 3, "%"),
			u8("curBurnPow", 4, "%"),
			flag("burnGas", 7, 0),
			flag("fanWork", 7, 2),
			flag("ignWork", 7, 3),
			flag("heatPump", 7, 5),
			flag("wWHeat", 7, 6),
			flag("wWCirc", 7, 7),
			temp16("retTemp", 13),
			u16("flameCurr", 15, "µA"),
			u8("sysPress", 17, "bar/10"),
			i16("serviceCodeNumber", 20, ""),
		}},
		{name: "UBAMonitorSlow", owner: b, kind: MessageMonitor, ids: hc(TypeUBAMonitorSlow), fields: []FieldSpec{
			temp16("extTemp", 0),
			temp16("boilTemp", 2),
			temp16("exhaustTemp", 4),
			u8("pumpMod", 9, "%"),
			u24("burnStarts", 10, ""),
			u24("burnWorkMin", 13, "min"),
			u24("heatWorkMin", 19, "min"),
		}},
		{name: "UBAMonitorWWMessage", owner: b, kind: MessageMonitor, ids: hc(TypeUBAMonitorWWMessage), fields: []FieldSpec{
			temp16("wWCurTmp", 1),
			flag("wWOneTime", 5, 1),
			u8("wWCurFlow", 9, "l/min/10"),
			u24("wWWorkM", 10, "min"),
			u24("wWStarts", 13, ""),
		}},
		{name: "UBAParameterWW", owner: b, kind: MessageSet, ids: hc(TypeUBAParameterWW), fields: []FieldSpec{
			enum("wWActivated", 1, onOffValues),
			u8("wWSelTemp", 2, "°C"),
			enum("wWCircPump", 6, onOffValues),
			enum("wWComfort", 9, wwComfortValues),
		}},
		{name: "UBAFlags", owner: b, kind: MessageSet, ids: hc(TypeUBAFlags), fields: []FieldSpec{
			enum("wWOneTime", 0, oneTimeValues),
		}},
		{name: "UBATotalUptimeMessage", owner: b, kind: MessageMonitor, ids: hc(TypeUBATotalUptime), fields: []FieldSpec{
			u24("UBAuptime", 0, "min"),
		}},
		{name: "UBAParametersMessage", owner: b, kind: MessageSet, ids: hc(TypeUBAParametersMessage), fields: []FieldSpec{
			u8("heatingTemp", 1, "°C"),
			u8("pumpModMax", 9, "%"),
			u8("pumpModMin", 10, "%"),
		}},
		{name: "UBASetPoints", owner: b, kind: MessageSet, ids: hc(TypeUBASetPoints), fields: []FieldSpec{
			u8("flowTemp", 0, "°C"),
			u8("burnPower", 1, "%"),
			u8("pumpPower", 2, "%"),
		}},
		{name: "UBAOutdoorTemp", owner: b, kind: MessageMonitor, ids: hc(TypeUBAOutdoorTemp), fields: []FieldSpec{
			temp16("extTemp", 0),
		}},
		{name: "UBAMonitorFast2", owner: b, kind: MessageMonitor, ids: hc(TypeUBAMonitorFast2), fields: []FieldSpec{
			u8("selFlowTemp", 6, "°C"),
			temp16("curFlowTemp", 7),
			u8("selBurnPow", 9, "%"),
			u8("curBurnPow", 10, "%"),
			flag("burnGas", 11, 0),
			flag("fanWork", 11, 2),
			flag("ignWork", 11, 3),
			flag("heatPump", 11, 5),
			flag("wWHeat", 11, 6),
			flag("wWCirc", 11, 7),
			temp16("retTemp", 17),
			u16("flameCurr", 19, "µA"),
		}},
		{name: "UBAMonitorSlow2", owner: b, kind: MessageMonitor, ids: hc(TypeUBAMonitorSlow2), fields: []FieldSpec{
			u24("burnStarts", 10, ""),
			u24("burnWorkMin", 13, "min"),
			u24("heatWorkMin", 19, "min"),
			u8("pumpMod", 25, "%"),
		}},
	}
}

func thermostatDefs() []messageDef {
	t := DeviceTypeThermostat
	return []messageDef{
		{name: "RCTime", owner: t, kind: MessageMonitor, ids: hc(TypeRCTime), fields: []FieldSpec{
			u8("year", 0, ""),
			u8("month", 1, ""),
			u8("hour", 2, ""),
			u8("day", 3, ""),
			u8("minute", 4, ""),
			u8("second", 5, ""),
		}},
		{name: "RCOutdoorTempMessage", owner: t, kind: MessageMonitor, ids: hc(TypeRCOutdoorTemp), fields: []FieldSpec{
			i8("outdoorTemp", 0, "°C"),
		}},

		{name: "RC10StatusMessage", owner: t, family: FamilyRC10, kind: MessageMonitor, ids: hc(TypeRC10StatusMessage), fields: []FieldSpec{
			temp8("setpoint", 1),
			temp16("curr", 2),
		}},
		{name: "RC10Set", owner: t, family: FamilyRC10, kind: MessageSet, ids: hc(TypeRC10Set), fields: []FieldSpec{
			temp8("setpointTemp", 4),
		}},

		{name: "RC20StatusMessage", owner: t, family: FamilyRC20, kind: MessageMonitor, ids: hc(TypeRC20StatusMessage), fields: rcStatusLayout},
		{name: "RC20Set", owner: t, family: FamilyRC20, kind: MessageSet, ids: hc(TypeRC20Set), fields: rcSetLayout},
		{name: "RC30StatusMessage", owner: t, family: FamilyRC30, kind: MessageMonitor, ids: hc(TypeRC30StatusMessage), fields: rcStatusLayout},
		{name: "RC30Set", owner: t, family: FamilyRC30, kind: MessageSet, ids: hc(TypeRC30Set), fields: rcSetLayout},

		{name: "RC35StatusMessage", owner: t, family: FamilyRC35, kind: MessageMonitor,
			ids: hc(TypeRC35StatusHC1, TypeRC35StatusHC2, TypeRC35StatusHC3, TypeRC35StatusHC4),
			fields: []FieldSpec{
				flag("holidayMode", 0, 5),
				flag("summerMode", 1, 0),
				flag("dayMode", 1, 1),
				temp8("setpoint", 2),
				temp16("curr", 3),
				u8("circuitCalcTemp", 14, "°C"),
			}},
		{name: "RC35Set", owner: t, family: FamilyRC35, kind: MessageSet,
			ids: hc(TypeRC35SetHC1, TypeRC35SetHC2, TypeRC35SetHC3, TypeRC35SetHC4),
			fields: []FieldSpec{
				enum("heatingType", 0, heatingTypeValues),
				temp8("tempNight", 1),
				temp8("tempDay", 2),
				temp8("tempHoliday", 3),
				enum("mode", 7, rcModeValues),
			}},

		{name: "EasyStatusMessage", owner: t, family: FamilyEasy, kind: MessageMonitor, ids: hc(TypeEasyStatusMessage), fields: []FieldSpec{
			temp16("curr", 8),
			temp16("setpoint", 10),
		}},

		{name: "RCPLUSStatusMessage", owner: t, family: FamilyRC300, kind: MessageMonitor,
			ids: hc(TypeRCPLUSStatusHC1, TypeRCPLUSStatusHC2, TypeRCPLUSStatusHC3, TypeRCPLUSStatusHC4),
			fields: []FieldSpec{
				temp16("curr", 0),
				temp8("setpoint", 3),
				temp8("currSetpoint", 6),
				flag("modeAuto", 10, 0),
			}},
		{name: "RCPLUSStatusMode", owner: t, family: FamilyRC300, kind: MessageMonitor, ids: hc(TypeRCPLUSStatusMode), fields: []FieldSpec{
			flag("summerMode", 2, 0),
		}},
		// Only HC1 is known for the RC300 parameter block.
		{name: "RCPLUSSet", owner: t, family: FamilyRC300, kind: MessageSet, ids: hc(TypeRCPLUSSet), fields: []FieldSpec{
			enum("mode", 0, rcPlusModeValues),
			temp8("tempComfort3", 1),
			temp8("tempComfort2", 2),
			temp8("tempComfort1", 3),
			temp8("tempEco", 4),
			temp8("tempSetpoint", 8),
			temp8("manualSetpoint", 10),
		}},

		{name: "JunkersStatusMessage", owner: t, family: FamilyJunkers, kind: MessageMonitor, ids: hc(TypeJunkersStatusMsg), fields: []FieldSpec{
			enum("dayMode", 0, junkersDayModeValues),
			enum("mode", 1, junkersModeValues),
			temp16("setpoint", 2),
			temp16("curr", 4),
		}},
	}
}

var rcStatusLayout = []FieldSpec{
	temp8("setpoint", 1),
	temp16("curr", 2),
}

var rcSetLayout = []FieldSpec{
	enum("mode", 23, rcModeValues),
	temp8("temp", 28),
}

func mixingDefs() []messageDef {
	return []messageDef{
		{name: "MMPLUSStatusMessage", owner: DeviceTypeMixing, kind: MessageMonitor,
			ids: hc(TypeMMPLUSStatusHC1, TypeMMPLUSStatusHC2, TypeMMPLUSStatusHC3, TypeMMPLUSStatusHC4),
			fields: []FieldSpec{
				u8("valveStatus", 2, "%"),
				temp16("flowTemp", 3),
				u8("pumpMod", 5, "%"),
			}},
	}
}

func solarDefs() []messageDef {
	s := DeviceTypeSolar
	return []messageDef{
		{name: "SM10Monitor", owner: s, family: FamilySM10, kind: MessageMonitor, ids: hc(TypeSM10Monitor), fields: []FieldSpec{
			temp16("collectorTemp", 2),
			u8("pumpModulation", 4, "%"),
			temp16("bottomTemp", 5),
			flag("pump", 7, 1),
		}},
		{name: "SM100Monitor", owner: s, family: FamilySM100, kind: MessageMonitor, ids: hc(TypeSM100Monitor), fields: []FieldSpec{
			temp16("collectorTemp", 0),
			temp16("bottomTemp", 2),
		}},
		{name: "SM100Status", owner: s, family: FamilySM100, kind: MessageMonitor, ids: hc(TypeSM100Status), fields: []FieldSpec{
			u8("pumpModulation", 9, "%"),
		}},
		{name: "SM100Status2", owner: s, family: FamilySM100, kind: MessageMonitor, ids: hc(TypeSM100Status2), fields: []FieldSpec{
			flag("pump", 10, 2),
		}},
		{name: "SM100Energy", owner: s, family: FamilySM100, kind: MessageMonitor, ids: hc(TypeSM100Energy), fields: []FieldSpec{
			u24("energyLastHour", 2, "Wh"),
			u24("energyToday", 6, "Wh"),
			u24("energyTotal", 10, "Wh"),
		}},
		{name: "ISM1StatusMessage", owner: s, family: FamilySM100, kind: MessageMonitor, extended: true, ids: hc(TypeISM1StatusMessage), fields: []FieldSpec{
			u16("energyLastHour", 2, "Wh"),
			temp16("collectorTemp", 4),
			temp16("bottomTemp", 6),
			flag("pump", 12, 0),
		}},
		{name: "ISM1Set", owner: s, family: FamilySM100, kind: MessageSet, extended: true, ids: hc(TypeISM1Set), fields: []FieldSpec{
			u8("maxBoilerTemp", 6, "°C"),
		}},
	}
}

func heatPumpDefs() []messageDef {
	h := DeviceTypeHeatPump
	return []messageDef{
		{name: "HPMonitor1", owner: h, kind: MessageMonitor, ids: hc(TypeHPMonitor1), fields: []FieldSpec{
			u8("pumpModulation", 13, "%"),
		}},
		{name: "HPMonitor2", owner: h, kind: MessageMonitor, ids: hc(TypeHPMonitor2), fields: []FieldSpec{
			u8("pumpSpeed", 25, "%"),
		}},
	}
}
