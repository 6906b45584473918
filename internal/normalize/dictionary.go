package normalize

// defaultEntries maps canonical manufacturer names to the variants
// seen in operator uploads: translations, transliterations, legal
// suffixes and common misspellings.
var defaultEntries = map[string][]string{
	"STMicroelectronics": {
		"意法半导体",
		"st microelectronics",
		"st micro",
		"стмикроэлектроникс",
	},
	"Texas Instruments": {
		"德州仪器",
		"ti",
		"texas instruments incorporated",
		"техас инструментс",
	},
	"Analog Devices": {
		"亚德诺半导体",
		"analog devices inc",
		"adi",
		"аналог девайсез",
	},
	"Infineon Technologies": {
		"英飞凌",
		"infineon",
		"инфинеон",
	},
	"NXP Semiconductors": {
		"恩智浦",
		"nxp",
		"нексперия nxp",
	},
	"Microchip Technology": {
		"微芯科技",
		"microchip",
		"микрочип",
	},
	"ON Semiconductor": {
		"安森美半导体",
		"onsemi",
		"он семикондактор",
	},
	"Renesas Electronics": {
		"瑞萨电子",
		"ルネサスエレクトロニクス",
		"renesas",
	},
	"Toshiba": {
		"东芝",
		"東芝",
		"toshiba corporation",
		"тошиба",
	},
	"Murata Manufacturing": {
		"村田制作所",
		"村田製作所",
		"murata",
		"мурата",
	},
	"TDK": {
		"tdk corporation",
		"ティーディーケイ",
	},
	"Vishay": {
		"威世",
		"vishay intertechnology",
		"вишай",
	},
	"Rohm Semiconductor": {
		"罗姆半导体",
		"ローム",
		"rohm",
	},
	"Yageo": {
		"国巨",
		"國巨",
		"yageo corporation",
	},
	"Samsung Electro-Mechanics": {
		"三星电机",
		"samsung electro mechanics",
		"semco",
	},
	"Nexperia": {
		"安世半导体",
		"нексперия",
	},
	"Diodes Incorporated": {
		"达尔科技",
		"diodes inc",
	},
	"Bourns": {
		"伯恩斯",
		"bourns inc",
	},
	"Sibeco": {
		"сибеко",
		"sibeko",
	},
}
