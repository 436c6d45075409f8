package commands

// Bundled blueprints. These are opaque game payloads; the client never
// decodes them.
const (
	// BrushBlueprint paints asteroid locations for the shape miner layout.
	BrushBlueprint = "SHAPEZ2-3-H4sIAHZLR2gC/53SzUrDQBRA4Vcpg0sF753/LkUXBYVSXShSJGjEQExKkwql9N2dal247CGQGe7kTDbfznyZ6URE9XxiruZlvzNn43ZVl52ZDW3VvZlyMnvtu5+z62qsyubZNGUynbfV+N6vP4fyTbdp27+3GT6qVT1dbH4fs9yX2U03rpt6ONQ781iWyzJ8Oq6L4/pw+O9tte0348v94ZK7pqvXpvT/mwshkZLIksiRyJMokCiSKJEonxAJACEEhBAQQkAIASEEhBAQQkAIASEEhAIQSkAoAaEEhBIQSkAoAaEEhBIQSkBYAMISEJaAsASEJSAsAWEJCEtAWALCEhAOgHAEhCMgHAHhCAhHQDgCwhEQjoBwBIQHIDwB4QkIT0B4AsITEJ6A8ASEJyA8AREAiEBABAIiEBCBgAgERCAgAgERCIhAQEQAIhIQkYCIBEQkICIBEQmISEBEAiISEAmASAREIiASAZEIiERAJAIiERCJgEgERAYgMgGRCYhMQGQCIhMQmYDIBEQmIPIpIJb7/TeqFG9MIRUAAA==$"

	// BrushFluidBlueprint paints asteroid locations for the fluid miner layout.
	BrushFluidBlueprint = "SHAPEZ2-3-H4sIANS0SmgA/4yWTUvDQBCG/8vgcecwG3PZo6hQUCgiokiRxUYMxKTk41BC/ruRXjxlHgqB0Dez7zzvsMwsL5LMYgxys5c0y9V4PlWSZDc0uT1KkN1n1/79cZvHLOld6vU97Zs8fnX9zyChnZrm8pDhO5+q9DRdfnJYgty1Y19Xw/rhLK+S9DrIm6T1+bye8ZDP3TR+3DdTfXys26qXJfyXFUwWmcyAjNRRgzroS2Gb2F/p6QoWQsFCKFgIBQsBHqcGddAXPhdS80OILITIQogshMhCgHXUoI7Wg20qpOaHYCwEYyEYC8FYCMbqYB30pbBNhdS2Q/Doe9g93h7ozS+30bpMXZguRTLDbITZBLMBZvNrqIpCGfOkrEFltFz07ApnNzi7wNn9zaqoMRmsxhpURstFz1YYtsGwBYbtL+wsNSZjnhQeymi56NkKzzZ4tsCz/Z05UmMy5klZgwq9eehLhL5E6EuEvkTomW81JmOelDWojNYG+sOy/AogwAAP2KUlJg8AAA==$"

	// DefaultMinerBlueprint is the miner used when --blueprint is not given.
	// 1:12 balanced shape miner.
	DefaultMinerBlueprint = "SHAPEZ2-3-H4sIALPpUWgA/6yYXYvaQBSG/8vQy1w4E/NhLsNuQYggaqWlSBl03A5NExnHtiL5701MdBOTmjknZWFB1mff8/lmJheyJgGljFkknJPgQj7o80GQgEyPMU92xCLTbZoUf3jhmpPgK5H552Aec71P1c8jsZJTHJe/yPE7P4hgcSp/yCazyGuilRTHHLyQVf5vI35OT/rbsvjmTCZC5QphXTc8yXgnk7f/qvw5z3FskS8kcCyyyD9Y12Be/2jFtzpVL2LPT7GeJlqohMdrriRPNMmsEmVD0UI8Z20Q6+NRF49S78r6JRSKWM9TpZci2Qn1HJnAETpCMBTO5NlE99YBc8KBRWZIkmLJMkuGzZKhs2ToLEEkra0hgw01rS8EjJ3cUYjgqGMDZ0K9CbW6et9TMQej1bAnAykfbWou3g5tvDF5Q1UxqDfASMdDrd+tB2y0IlW4dl3SCHSRgu59mdvgQmyF/NWHtmKtKvMxVb+52j2HmfG0V93AltTvqmhPgmUTPbBWK0ajinh1NYOCeI0KmhmwPSC+6iTkgUpYQfCu3YwGvgnUbT74O1ONxF6b8AxaJNrZFbMqIVepenxgJrxCzYeuyg+yE5UGcuhG6DEYD6mpPwSeoDcTODc+3rx9sP+y+4ERLHZjWfswxVYpjXowCn1INNOyc4me72MqWPnE+z2hc1I6jGYmlUqV2D32HmSPTidjFvIEbYpV93Fpuo2Ql4dY6hygq9TuEWU463DbN0dzUa/d1UjuNf10CPn2h6ksQ1TarvUI6Ob2LfTHe0TXlv1jDH3osvmN6vT0xOm+zZs11Gkst5ng+whFyJGn7UkwGSOnTTcDN1kZ5+GSPnT3RrhDjfv40AcoO5hTo1s70VBozf16sQ177bSNsWgT62zTY1XtDszMJaq5ZLhzn/vwIgY+HRuLhDLh6rwW6iiLl7XFm+Qs22TZXwEGADQ+codYFgAA$"

	// DefaultFluidMinerBlueprint is the default miner in fluid mode.
	DefaultFluidMinerBlueprint = "SHAPEZ2-3-H4sIADa2SmgA/6yXYWvqMBSG/8vhfuwHk6qt/ejdBg4HsnuvbAwZwcYtrEtLmnIR6X9fa52Lc6s9xyFYinl83+Q9JyEbmEPEGOcejGcQbeCXXWcSIpjkidAxeDBZprr+4UJYAdEDqOo9miXCrlLzmoOniyRpviB/FpmMbovmA4vSg0ttjZJ5BW7gb/W3U7FOC/t4lRQqvlFamkph7OqOC5XESj/9qPJdPUcP7iEaeHBbvXhbM7PiNbuQK1EkdqKtNFokc2GU0BZKr6E4ifJJVP8Mqn5UmI+0iMY4DWNnYYwUGhrzaVj/HCwkxRaSUgtJq4+lBlsq2I1XmbxKzX9h4vbxtcWOwPBdwLFVUVO5su2Iq3F6dPgx+LrQS6tS/R0QuMB2a5ulxv6ROpamXWSEFRkRRFgPq/JOdJQJ9h2A99a0jZPMb5Pm+YliOYL+ZWOxfGmrmg+P032Xop026GHddS4OtO4+carjnovi0kdLDg6nSYunwTk9HX6wCZ/o8+ATia/4Hhkd0Wd6INol1eGxYncs/HpdMZqMpsmwms15NcSUAHcQRE/7NIw5JxfHGAywS+HTsL4zL47Fjk7k1p2c7Y9kbFo7Bh0Xntt59PGB7Rh0Yniu/43HjtzR+n8d2qK6pSktzHouTa7qa1l9ZyzLRVm+CSDAAAoWop9CDgAA$"
)

// defaultMiner returns the bundled miner blueprint for the mode.
func defaultMiner(fluid bool) string {
	if fluid {
		return DefaultFluidMinerBlueprint
	}
	return DefaultMinerBlueprint
}

// brushFor returns the bundled brush blueprint for the mode.
func brushFor(fluid bool) string {
	if fluid {
		return BrushFluidBlueprint
	}
	return BrushBlueprint
}
