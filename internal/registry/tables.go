package registry

// defaultDomains maps manufacturer-owned hostnames to canonical names.
// Subdomains match implicitly.
var defaultDomains = map[string]string{
	"ti.com":            "Texas Instruments",
	"st.com":            "STMicroelectronics",
	"analog.com":        "Analog Devices",
	"infineon.com":      "Infineon Technologies",
	"nxp.com":           "NXP Semiconductors",
	"microchip.com":     "Microchip Technology",
	"onsemi.com":        "ON Semiconductor",
	"renesas.com":       "Renesas Electronics",
	"toshiba.semicon-storage.com": "Toshiba",
	"murata.com":        "Murata Manufacturing",
	"tdk.com":           "TDK",
	"tdk-electronics.tdk.com": "TDK",
	"vishay.com":        "Vishay",
	"rohm.com":          "Rohm Semiconductor",
	"yageo.com":         "Yageo",
	"samsungsem.com":    "Samsung Electro-Mechanics",
	"nexperia.com":      "Nexperia",
	"diodes.com":        "Diodes Incorporated",
	"bourns.com":        "Bourns",
	"maximintegrated.com": "Analog Devices",
	"skyworksinc.com":   "Skyworks Solutions",
	"littelfuse.com":    "Littelfuse",
	"te.com":            "TE Connectivity",
	"molex.com":         "Molex",
	"amphenol.com":      "Amphenol",
	"kemet.com":         "KEMET",
	"avx.com":           "KYOCERA AVX",
	"nichicon.co.jp":    "Nichicon",
	"panasonic.com":     "Panasonic",
	"epson.com":         "Epson",
	"silabs.com":        "Silicon Labs",
	"latticesemi.com":   "Lattice Semiconductor",
	"xilinx.com":        "AMD Xilinx",
	"intel.com":         "Intel",
	"broadcom.com":      "Broadcom",
	"qorvo.com":         "Qorvo",
	"cirrus.com":        "Cirrus Logic",
	"melexis.com":       "Melexis",
	"ams-osram.com":     "ams OSRAM",
	"semtech.com":       "Semtech",
}

// defaultManufacturers is the canonical name list used as fuzzy-match
// anchors for tokens pulled out of page text.
var defaultManufacturers = []string{
	"Texas Instruments",
	"STMicroelectronics",
	"Analog Devices",
	"Infineon Technologies",
	"NXP Semiconductors",
	"Microchip Technology",
	"ON Semiconductor",
	"Renesas Electronics",
	"Toshiba",
	"Murata Manufacturing",
	"TDK",
	"Vishay",
	"Rohm Semiconductor",
	"Yageo",
	"Samsung Electro-Mechanics",
	"Nexperia",
	"Diodes Incorporated",
	"Bourns",
	"Skyworks Solutions",
	"Littelfuse",
	"TE Connectivity",
	"Molex",
	"Amphenol",
	"KEMET",
	"KYOCERA AVX",
	"Nichicon",
	"Panasonic",
	"Epson",
	"Silicon Labs",
	"Lattice Semiconductor",
	"AMD Xilinx",
	"Intel",
	"Broadcom",
	"Qorvo",
	"Cirrus Logic",
	"Melexis",
	"ams OSRAM",
	"Semtech",
	"Sibeco",
}
