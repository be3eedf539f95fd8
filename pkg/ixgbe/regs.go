package ixgbe

// Register offsets, from the 82599 datasheet section on global registers.
const (
	regCTRL     = 0x00000
	regCTRLEXT  = 0x00018
	regEIMC     = 0x00888
	regEEC      = 0x10010
	regRDRXCTL  = 0x02F00
	regRXCTRL   = 0x03000
	regFCTRL    = 0x05080
	regDMATXCTL = 0x04A80
	regDTXMXSZRQ = 0x08100
	regRTTDCS   = 0x04900
	regHLREG0   = 0x04240
	regAUTOC    = 0x042A0
	regLINKS    = 0x042A4

	regGPRC  = 0x04074
	regGPTC  = 0x04080
	regGORCL = 0x04088
	regGORCH = 0x0408C
	regGOTCL = 0x04090
	regGOTCH = 0x04094

	regTXPBSIZEBase = 0x0CC00
)

// Bit masks.
const (
	ctrlRstMask = 1<<26 | 1<<3 // LRST | RST

	eecARD = 1 << 9

	rdrxctlDMAIDONE = 1 << 3
	rdrxctlCRCSTRIP = 1 << 1

	hlreg0RXCRCSTRP = 1 << 1
	hlreg0TXCRCEN   = 1 << 0
	hlreg0TXPADEN   = 1 << 10

	fctrlBAM = 1 << 10
	fctrlMPE = 1 << 8
	fctrlUPE = 1 << 9

	autocLMS10GSerialShift = 13
	autocLMS10GSerial      = 0x3 << autocLMS10GSerialShift
	autocPMAPMDShift       = 7
	autocPMAPMDXAUI        = 0x0 << autocPMAPMDShift
	autocANRestart         = 1 << 12

	linksLinkUp        = 1 << 30
	linksSpeedMask     = 0x3 << 28
	linksSpeedShift    = 28

	rttdcsARBDIS = 1 << 6

	ctrlExtNSDis = 1 << 16

	srrctlDescTypeAdvOneBuf = 1 << 25
	srrctlDropEn            = 1 << 28
)

// LinkSpeed is the negotiated link rate reported in LINKS.SPEED_82599.
type LinkSpeed int

const (
	LinkSpeedUnknown LinkSpeed = iota
	LinkSpeed100M
	LinkSpeed1G
	LinkSpeed10G
)

func (s LinkSpeed) String() string {
	switch s {
	case LinkSpeed100M:
		return "100 Mbit/s"
	case LinkSpeed1G:
		return "1 Gbit/s"
	case LinkSpeed10G:
		return "10 Gbit/s"
	default:
		return "unknown"
	}
}

func decodeLinkSpeed(links uint32) LinkSpeed {
	switch (links & linksSpeedMask) >> linksSpeedShift {
	case 0x1:
		return LinkSpeed100M
	case 0x2:
		return LinkSpeed1G
	case 0x3:
		return LinkSpeed10G
	default:
		return LinkSpeedUnknown
	}
}

// Per-queue register offset formulas. The 82599 places the first 64 RX
// queues' control registers in one block and reuses a second formula for
// queues 64 and above; this driver only exposes queues 0..63. DCA_RXCTRL
// is the exception: queues 0..15 use a separate 4-byte-stride block and
// queues 16..63 use the 0x40-stride block.
func rdbal(i int) int { return 0x01000 + i*0x40 }
func rdbah(i int) int { return 0x01004 + i*0x40 }
func rdlen(i int) int { return 0x01008 + i*0x40 }
func rdh(i int) int   { return 0x01010 + i*0x40 }
func rdt(i int) int   { return 0x01018 + i*0x40 }
func srrctl(i int) int { return 0x01014 + i*0x40 }
func rxdctl(i int) int { return 0x01028 + i*0x40 }
func dcaRxCtrl(i int) int {
	if i <= 15 {
		return 0x02200 + i*4
	}
	if i < 64 {
		return 0x0100C + i*0x40
	}
	return 0x0D00C + (i-64)*0x40
}

func tdbal(i int) int { return 0x06000 + i*0x40 }
func tdbah(i int) int { return 0x06004 + i*0x40 }
func tdlen(i int) int { return 0x06008 + i*0x40 }
func tdh(i int) int   { return 0x06010 + i*0x40 }
func tdt(i int) int   { return 0x06018 + i*0x40 }
func txdctl(i int) int { return 0x06028 + i*0x40 }
func txPBSize(i int) int { return regTXPBSIZEBase + i*4 }
func rxPBSize(i int) int { return 0x03C00 + i*4 }

const (
	txdctlPTHRESH = 36
	txdctlHTHRESH = 8 << 8
	txdctlWTHRESH = 4 << 16
	txdctlEnable  = 1 << 25

	rxdctlEnable = 1 << 25
)

// VendorID is Intel's PCI vendor identifier.
const VendorID = 0x8086

// supportedDeviceIDs enumerates the 82599/X540/X550-family physical and
// SR-IOV virtual function device IDs this driver will bring up.
var supportedDeviceIDs = map[uint16]bool{
	0x10B6: true, 0x1508: true, 0x10C6: true, 0x10C7: true, 0x10C8: true,
	0x150B: true, 0x10DB: true, 0x10DD: true, 0x10EC: true, 0x10F1: true,
	0x10E1: true, 0x10F4: true, 0x10F7: true, 0x1514: true, 0x1517: true,
	0x10F8: true, 0x000C: true, 0x10F9: true, 0x10FB: true, 0x11A9: true,
	0x1F72: true, 0x17D0: true, 0x0470: true, 0x152A: true, 0x1529: true,
	0x1507: true, 0x154D: true, 0x154A: true, 0x1558: true, 0x1557: true,
	0x10FC: true, 0x151C: true, 0x154F: true, 0x1528: true, 0x1560: true,
	0x15AC: true, 0x15AD: true, 0x15AE: true, 0x1563: true, 0x15D1: true,
	0x1572: true, 0x1574: true, 0x15A4: true, 0x15A5: true, 0x15A6: true,
	0x1580: true, 0x1581: true, 0x1583: true, 0x1584: true, 0x1585: true,
	0x1586: true, 0x1587: true, 0x1588: true, 0x1589: true, 0x37D0: true,
	0x37D1: true, 0x37D2: true, 0x37D3: true,
}

// IsSupportedDevice reports whether deviceID names a NIC this driver
// knows how to initialize.
func IsSupportedDevice(deviceID uint16) bool {
	return supportedDeviceIDs[deviceID]
}
