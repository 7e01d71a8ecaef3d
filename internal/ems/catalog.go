package ems

func device(pid ProductID, t DeviceType, name string, caps Capabilities) DeviceDescriptor {
	return DeviceDescriptor{ProductID: pid, Type: t, Name: name, Capabilities: caps}
}

func writable(f Family) Capabilities { return Capabilities{Writable: true, Family: f} }

func readOnly(f Family) Capabilities { return Capabilities{Family: f} }

// devices is the table of known products. Product ids are only unique per
// device type (203 is both a boiler and a thermostat), and lookups take the
// first entry in this order.
var devices = []DeviceDescriptor{
	// UBA masters, address 0x08
	device(72, DeviceTypeBoiler, "MC10 Module", writable(FamilyNone)),
	device(123, DeviceTypeBoiler, "Buderus GBx72/Nefit Trendline/Junkers Cerapur/Worcester Greenstar Si/27i", writable(FamilyNone)),
	device(133, DeviceTypeBoiler, "Buderus GB125/Logamatic MC110", writable(FamilyNone)),
	device(115, DeviceTypeBoiler, "Nefit Topline/Buderus GB162", writable(FamilyNone)),
	device(203, DeviceTypeBoiler, "Buderus Logamax U122/Junkers Cerapur", writable(FamilyNone)),
	device(208, DeviceTypeBoiler, "Buderus Logamax plus/GB192/Bosch Condens GC9000", writable(FamilyNone)),
	device(64, DeviceTypeBoiler, "Sieger BK13,BK15/Nefit Smartline/Buderus GB1x2", writable(FamilyNone)),
	device(234, DeviceTypeBoiler, "Buderus Logamax Plus GB122", writable(FamilyNone)),
	device(95, DeviceTypeBoiler, "Bosch Condens 2500/Buderus Logamax GB062/Junkers Cerapur Top/Worcester Greenstar i/Generic HT3", writable(FamilyNone)),
	device(122, DeviceTypeBoiler, "Nefit Proline", writable(FamilyNone)),
	device(170, DeviceTypeBoiler, "Buderus Logano GB212", writable(FamilyNone)),
	device(172, DeviceTypeBoiler, "Nefit Enviline", writable(FamilyNone)),

	// Solar modules, address 0x30
	device(73, DeviceTypeSolar, "SM10 Solar Module", writable(FamilySM10)),
	device(163, DeviceTypeSolar, "SM100 Solar Module", writable(FamilySM100)),
	device(101, DeviceTypeSolar, "Junkers ISM1 Solar Module", writable(FamilySM100)),
	device(162, DeviceTypeSolar, "SM50 Solar Module", writable(FamilySM100)),

	// Mixing modules, address 0x20 or 0x21
	device(160, DeviceTypeMixing, "MM100 Mixing Module", writable(FamilyNone)),
	device(161, DeviceTypeMixing, "MM200 Mixing Module", writable(FamilyNone)),
	device(69, DeviceTypeMixing, "MM10 Mixer Module", writable(FamilyNone)),
	device(159, DeviceTypeMixing, "MM50 Mixing Module", writable(FamilyNone)),
	device(79, DeviceTypeMixing, "MM100 Mixer Module", writable(FamilyNone)),
	device(80, DeviceTypeMixing, "MM200 Mixer Module", writable(FamilyNone)),
	device(78, DeviceTypeMixing, "MM400 Mixer Module", writable(FamilyNone)),

	// Heat pumps, address 0x38
	device(252, DeviceTypeHeatPump, "HeatPump Module", writable(FamilyNone)),
	device(200, DeviceTypeHeatPump, "HeatPump Module", writable(FamilyNone)),

	// Switching module, controllers, connect units and gateway
	device(71, DeviceTypeSwitch, "WM10 Switch Module", writable(FamilyNone)),
	device(68, DeviceTypeController, "BC10/RFM20 Receiver", writable(FamilyNone)),
	device(218, DeviceTypeController, "Junkers M200/Buderus RFM200 Receiver", writable(FamilyNone)), // seen on 0x50
	device(190, DeviceTypeController, "BC10 Base Controller", writable(FamilyNone)),
	device(114, DeviceTypeController, "BC10 Base Controller", writable(FamilyNone)),
	device(125, DeviceTypeController, "BC25 Base Controller", writable(FamilyNone)),
	device(169, DeviceTypeController, "BC40 Base Controller", writable(FamilyNone)),
	device(152, DeviceTypeController, "Controller", writable(FamilyNone)),
	device(95, DeviceTypeController, "HT3 Controller", writable(FamilyNone)),
	device(230, DeviceTypeController, "BC Base Controller", writable(FamilyNone)),
	device(205, DeviceTypeConnect, "Nefit Moduline Easy Connect", writable(FamilyNone)),
	device(206, DeviceTypeConnect, "Bosch Easy Connect", writable(FamilyNone)),
	device(171, DeviceTypeConnect, "EMS-OT OpenTherm converter", writable(FamilyNone)),
	device(189, DeviceTypeGateway, "Web Gateway KM200", writable(FamilyNone)),

	// Thermostats, typically 0x10, 0x17 or 0x18.
	// Easy models do not accept writes.
	device(202, DeviceTypeThermostat, "Logamatic TC100/Nefit Moduline Easy", readOnly(FamilyEasy)),
	device(203, DeviceTypeThermostat, "Bosch EasyControl CT200", readOnly(FamilyEasy)),
	device(157, DeviceTypeThermostat, "Buderus RC200/Bosch CW100/Junkers CW100", readOnly(FamilyNone)),

	device(79, DeviceTypeThermostat, "RC10/Moduline 100", writable(FamilyRC10)),
	device(77, DeviceTypeThermostat, "RC20/Moduline 300", writable(FamilyRC20)),
	device(93, DeviceTypeThermostat, "RC20RF", writable(FamilyRC20)),
	device(67, DeviceTypeThermostat, "RC30", writable(FamilyRC30)),
	device(78, DeviceTypeThermostat, "RC30/Moduline 400", writable(FamilyRC30)),
	device(86, DeviceTypeThermostat, "RC35", writable(FamilyRC35)),
	device(158, DeviceTypeThermostat, "RC300/RC310/Moduline 3000/Bosch CW400/W-B Sense II", writable(FamilyRC300)),
	device(165, DeviceTypeThermostat, "RC100/Moduline 1010", readOnly(FamilyRC300)),

	device(76, DeviceTypeThermostat, "Sieger ES73", writable(FamilyRC35)),

	device(105, DeviceTypeThermostat, "Junkers FW100", readOnly(FamilyJunkers)),
	device(106, DeviceTypeThermostat, "Junkers FW200", readOnly(FamilyJunkers)),
	device(107, DeviceTypeThermostat, "Junkers FR100", readOnly(FamilyJunkers)),
	device(108, DeviceTypeThermostat, "Junkers FR110", readOnly(FamilyJunkers)),
	device(111, DeviceTypeThermostat, "Junkers FR10", readOnly(FamilyJunkers)),
	device(191, DeviceTypeThermostat, "Junkers FR120", readOnly(FamilyJunkers)),
	device(192, DeviceTypeThermostat, "Junkers FW120", readOnly(FamilyJunkers)),
	device(147, DeviceTypeThermostat, "Junkers FR50", readOnly(FamilyJunkers)),
}
