package catalog

// DetectionRulesPhaseID is the phase holding YARA and Sigma rule repositories.
const DetectionRulesPhaseID = 3

// Catalog returns the built-in phases in execution order.
func Catalog() []Phase {
	return []Phase{
		phase1CTFBugBounty(),
		phase2ExploitsTools(),
		phase3YaraSigma(),
		phase4CVEDatabase(),
		phase5AdvancedThreats(),
	}
}

func phase1CTFBugBounty() Phase {
	return Phase{
		ID:   1,
		Name: "CTF & Bug Bounty Reports",
		Dir:  "phase1_ctf_bugbounty",
		Resources: []Descriptor{
			{Kind: KindGit, Source: "https://github.com/ShundaZhang/htb", LocalName: "htb_shundazhang", Subdir: "ctf_writeups"},
			{Kind: KindGit, Source: "https://github.com/hackplayers/hackthebox-writeups", LocalName: "htb_hackplayers", Subdir: "ctf_writeups"},
			{Kind: KindGit, Source: "https://github.com/sohailburki1/HackTheBox-Writeups", LocalName: "htb_sohailburki1", Subdir: "ctf_writeups"},
			{Kind: KindGit, Source: "https://github.com/jon-brandy/hackthebox", LocalName: "htb_jonbrandy", Subdir: "ctf_writeups"},
			{Kind: KindGit, Source: "https://github.com/uppusaikiran/awesome-ctf-cheatsheet", LocalName: "awesome_ctf_cheatsheet", Subdir: "ctf_writeups"},
			{Kind: KindGit, Source: "https://github.com/reddelexc/hackerone-reports", LocalName: "hackerone_reddelexc", Subdir: "bugbounty_repos"},
			{Kind: KindGit, Source: "https://github.com/buildergk/hackerone-bug-bounty-reports", LocalName: "hackerone_buildergk", Subdir: "bugbounty_repos"},
			{Kind: KindGit, Source: "https://github.com/phlmox/public-reports", LocalName: "public_reports_phlmox", Subdir: "bugbounty_repos"},
			{Kind: KindHub, Source: "Hacker0x01/hackerone_disclosed_reports", LocalName: "hackerone_reports"},
		},
	}
}

func phase2ExploitsTools() Phase {
	return Phase{
		ID:   2,
		Name: "Exploits & Security Tools",
		Dir:  "phase2_exploits_tools",
		Resources: []Descriptor{
			{Kind: KindGit, Source: "https://gitlab.com/exploit-database/exploitdb", LocalName: "exploitdb", Subdir: "exploit_databases"},
			{Kind: KindGit, Source: "https://github.com/offensive-security/exploitdb-papers", LocalName: "exploitdb_papers", Subdir: "exploit_databases"},
			{Kind: KindGit, Source: "https://github.com/swisskyrepo/PayloadsAllTheThings", LocalName: "payloads_all_the_things", Subdir: "security_tools"},
			{Kind: KindGit, Source: "https://github.com/danielmiessler/SecLists", LocalName: "seclists", Subdir: "security_tools"},
			{Kind: KindGit, Source: "https://github.com/projectdiscovery/nuclei-templates", LocalName: "nuclei_templates", Subdir: "security_tools"},
			{Kind: KindGit, Source: "https://github.com/carlospolop/PEASS-ng", LocalName: "peass_ng", Subdir: "security_tools"},
		},
	}
}

func phase3YaraSigma() Phase {
	return Phase{
		ID:   3,
		Name: "YARA & Sigma Rules",
		Dir:  "phase3_yara_sigma",
		Resources: []Descriptor{
			{Kind: KindGit, Source: "https://github.com/Yara-Rules/rules", LocalName: "yara_rules_official", Subdir: "yara_rules"},
			{Kind: KindGit, Source: "https://github.com/Neo23x0/signature-base", LocalName: "neo23x0_signature_base", Subdir: "yara_rules"},
			{Kind: KindGit, Source: "https://github.com/SigmaHQ/sigma", LocalName: "sigmahq_sigma", Subdir: "sigma_rules"},
			{Kind: KindGit, Source: "https://github.com/SigmaHQ/pySigma", LocalName: "pysigma", Subdir: "sigma_rules"},
		},
	}
}

func phase4CVEDatabase() Phase {
	return Phase{
		ID:   4,
		Name: "CVE Database",
		Dir:  "phase4_cve_database",
		Resources: []Descriptor{
			{
				Kind:      KindAPI,
				LocalName: "nvd_cves",
				Params: []QueryParams{
					{Year: 2024},
					{Year: 2025},
					{ModifiedWithinDays: 120},
				},
			},
		},
	}
}

func phase5AdvancedThreats() Phase {
	return Phase{
		ID:   5,
		Name: "Advanced Threats & Black Hat Tactics",
		Dir:  "phase5_advanced_threats",
		Resources: []Descriptor{
			// Malware analysis (reference material, no live samples)
			{Kind: KindGit, Source: "https://github.com/rshipp/awesome-malware-analysis", LocalName: "malware_analysis", Subdir: "malware_analysis"},
			{Kind: KindGit, Source: "https://github.com/pan-unit42/iocs", LocalName: "malware_traffic_analysis", Subdir: "malware_analysis"},
			{Kind: KindGit, Source: "https://github.com/abuse-ch/MalwareBazaar", LocalName: "malware_bazaar", Subdir: "malware_analysis"},
			{Kind: KindGit, Source: "https://github.com/arieljaufman/Ransomware-Guide", LocalName: "ransomware_overview", Subdir: "malware_analysis"},
			{Kind: KindGit, Source: "https://github.com/NextronSystems/ransomware-simulator", LocalName: "ransomware_simulator", Subdir: "malware_analysis"},

			// Live malware samples. Password-protected archives; only fetched
			// when explicitly allowed.
			{Kind: KindGit, Source: "https://github.com/ytisf/theZoo", LocalName: "theZoo", Subdir: "malware_analysis", LiveMalware: true},
			{Kind: KindGit, Source: "https://github.com/vxunderground/MalwareSourceCode", LocalName: "vx_underground", Subdir: "malware_analysis", LiveMalware: true},

			// Phishing & social engineering
			{Kind: KindGit, Source: "https://github.com/mitchellkrogza/Phishing.Database", LocalName: "phishing_database", Subdir: "phishing_social_eng"},
			{Kind: KindGit, Source: "https://github.com/trustedsec/social-engineer-toolkit", LocalName: "social_engineering_toolkit", Subdir: "phishing_social_eng"},
			{Kind: KindGit, Source: "https://github.com/gophish/gophish", LocalName: "gophish", Subdir: "phishing_social_eng"},
			{Kind: KindGit, Source: "https://github.com/kgretzky/evilginx2", LocalName: "evilginx2", Subdir: "phishing_social_eng"},
			{Kind: KindGit, Source: "https://github.com/drk1wi/Modlishka", LocalName: "modlishka", Subdir: "phishing_social_eng"},

			// Mobile security
			{Kind: KindGit, Source: "https://github.com/MobSF/Mobile-Security-Framework-MobSF", LocalName: "mobsf", Subdir: "mobile_security"},
			{Kind: KindGit, Source: "https://github.com/androguard/androguard", LocalName: "androguard", Subdir: "mobile_security"},
			{Kind: KindGit, Source: "https://github.com/SecWiki/android-security-awesome", LocalName: "android_vulnerabilities", Subdir: "mobile_security"},
			{Kind: KindGit, Source: "https://github.com/dwisiswant0/apkleaks", LocalName: "apkleaks", Subdir: "mobile_security"},
			{Kind: KindGit, Source: "https://github.com/frida/frida", LocalName: "frida", Subdir: "mobile_security"},
			{Kind: KindGit, Source: "https://github.com/Siguza/ios-resources", LocalName: "ios_security", Subdir: "mobile_security"},
			{Kind: KindGit, Source: "https://github.com/sensepost/objection", LocalName: "objection", Subdir: "mobile_security"},

			// Crypto attacks
			{Kind: KindGit, Source: "https://github.com/r00t-3xp10it/cryptominer", LocalName: "cryptojacking_samples", Subdir: "crypto_attacks"},
			{Kind: KindGit, Source: "https://github.com/Mechanism-Labs/MetaMask", LocalName: "blockchain_attacks", Subdir: "crypto_attacks"},
			{Kind: KindGit, Source: "https://github.com/SunWeb3Sec/DeFiHackLabs", LocalName: "smart_contract_exploits", Subdir: "crypto_attacks"},
			{Kind: KindGit, Source: "https://github.com/crytic/not-so-smart-contracts", LocalName: "not_so_smart_contracts", Subdir: "crypto_attacks"},

			// Cloud security
			{Kind: KindGit, Source: "https://github.com/RhinoSecurityLabs/pacu", LocalName: "pacu", Subdir: "cloud_security"},
			{Kind: KindGit, Source: "https://github.com/RhinoSecurityLabs/cloudgoat", LocalName: "cloudgoat", Subdir: "cloud_security"},
			{Kind: KindGit, Source: "https://github.com/prowler-cloud/prowler", LocalName: "prowler", Subdir: "cloud_security"},
			{Kind: KindGit, Source: "https://github.com/RhinoSecurityLabs/AzureGoat", LocalName: "azure_redteam", Subdir: "cloud_security"},
			{Kind: KindGit, Source: "https://github.com/NetSPI/MicroBurst", LocalName: "microburst", Subdir: "cloud_security"},
			{Kind: KindGit, Source: "https://github.com/RhinoSecurityLabs/GCPBucketBrute", LocalName: "gcpbucketbrute", Subdir: "cloud_security"},
			{Kind: KindGit, Source: "https://github.com/aquasecurity/cloudsploit", LocalName: "cloudsploit", Subdir: "cloud_security"},
			{Kind: KindGit, Source: "https://github.com/nccgroup/ScoutSuite", LocalName: "scoutsuite", Subdir: "cloud_security"},

			// Binary exploitation
			{Kind: KindGit, Source: "https://github.com/ropemporium/ropemporium.github.io", LocalName: "rop_emporium", Subdir: "binary_exploitation"},
			{Kind: KindGit, Source: "https://github.com/pwncollege/pwncollege.github.io", LocalName: "pwn_college", Subdir: "binary_exploitation"},
			{Kind: KindGit, Source: "https://github.com/shellphish/how2heap", LocalName: "how2heap", Subdir: "binary_exploitation"},
			{Kind: KindGit, Source: "https://github.com/Naetw/CTF-pwn-tips", LocalName: "ret2libc", Subdir: "binary_exploitation"},
			{Kind: KindGit, Source: "https://github.com/rpisec/MBE", LocalName: "reversing_challenges", Subdir: "binary_exploitation"},
			{Kind: KindGit, Source: "https://github.com/RPISEC/Malware", LocalName: "crackmes", Subdir: "binary_exploitation"},
			{Kind: KindGit, Source: "https://github.com/fareedfauzi/Flare-On-Challenges", LocalName: "flare_on", Subdir: "binary_exploitation"},

			// APT intelligence
			{Kind: KindGit, Source: "https://github.com/aptnotes/data", LocalName: "apt_notes", Subdir: "apt_intelligence"},
			{Kind: KindGit, Source: "https://github.com/mitre-attack/attack-stix-data", LocalName: "mitre_attack", Subdir: "apt_intelligence"},
			{Kind: KindGit, Source: "https://github.com/hslatman/awesome-threat-intelligence", LocalName: "threat_intelligence", Subdir: "apt_intelligence"},
			{Kind: KindGit, Source: "https://github.com/curated-intel/Ukraine-Cyber-Operations", LocalName: "cyber_threat_intel", Subdir: "apt_intelligence"},

			// Hugging Face datasets
			{Kind: KindHub, Source: "santhisenan/malware_api_call_sequences", LocalName: "malware_api_calls", Subdir: "huggingface_datasets"},
			{Kind: KindHub, Source: "ealvaradob/phishing-dataset", LocalName: "phishing_emails", Subdir: "huggingface_datasets"},
			{Kind: KindHub, Source: "EMCS-JKUAT/android-malware", LocalName: "android_malware", Subdir: "huggingface_datasets"},
		},
	}
}
